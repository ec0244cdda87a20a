package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrUnauthorized is returned for missing, unknown or revoked API keys.
var ErrUnauthorized = errors.New("unauthorized")

type identityContextKey struct{}

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Name   string
	KeyID  string // key prefix for logging
}

// APIKeyRecord is the DynamoDB record for an API key.
type APIKeyRecord struct {
	PK         string `dynamodbav:"PK"` // APIKEY#{prefix}
	SK         string `dynamodbav:"SK"` // METADATA
	UserID     string `dynamodbav:"userId"`
	UserName   string `dynamodbav:"userName"`
	KeyHash    string `dynamodbav:"keyHash"` // SHA-256 hex
	Name       string `dynamodbav:"name"`
	Status     string `dynamodbav:"status"` // active, revoked
	CreatedAt  string `dynamodbav:"createdAt"`
	LastUsedAt string `dynamodbav:"lastUsedAt,omitempty"`
}

// WithIdentity stores the caller identity in context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the caller identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

func hashKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func apiKeyKey(prefix string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "APIKEY#" + prefix},
		"SK": &types.AttributeValueMemberS{Value: "METADATA"},
	}
}

// ValidateAPIKey checks a bearer token ("Bearer pk_…" or the bare key).
func (s *Store) ValidateAPIKey(ctx context.Context, bearerToken string) (Identity, error) {
	token := strings.TrimSpace(strings.TrimPrefix(bearerToken, "Bearer "))
	if token == "" {
		return Identity{}, fmt.Errorf("empty API key: %w", ErrUnauthorized)
	}
	if !strings.HasPrefix(token, "pk_") || len(token) < 11 {
		return Identity{}, fmt.Errorf("invalid API key format: %w", ErrUnauthorized)
	}
	prefix := token[3:11]

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key:       apiKeyKey(prefix),
	})
	if err != nil {
		return Identity{}, fmt.Errorf("lookup API key: %w", err)
	}
	if result.Item == nil {
		return Identity{}, fmt.Errorf("API key not found: %w", ErrUnauthorized)
	}

	var record APIKeyRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return Identity{}, fmt.Errorf("unmarshal API key: %w", err)
	}
	if record.KeyHash != hashKey(token) {
		return Identity{}, fmt.Errorf("API key mismatch: %w", ErrUnauthorized)
	}
	if record.Status != "active" {
		return Identity{}, fmt.Errorf("API key is %s: %w", record.Status, ErrUnauthorized)
	}

	s.touchKey(ctx, prefix)

	return Identity{UserID: record.UserID, Name: record.UserName, KeyID: prefix}, nil
}

// touchKey updates lastUsedAt at most once a minute. Failures are ignored.
func (s *Store) touchKey(ctx context.Context, prefix string) {
	now := s.now().UTC()
	_, _ = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           &s.tableName,
		Key:                 apiKeyKey(prefix),
		UpdateExpression:    aws.String("SET lastUsedAt = :now"),
		ConditionExpression: aws.String("attribute_not_exists(lastUsedAt) OR lastUsedAt < :threshold"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			":threshold": &types.AttributeValueMemberS{Value: now.Add(-time.Minute).Format(time.RFC3339)},
		},
	})
}

// CreateAPIKey generates a new API key, stores its hash, and returns the
// plaintext (shown once) and its prefix.
func (s *Store) CreateAPIKey(ctx context.Context, userID, userName, keyName string) (plaintext, prefix string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generate random bytes: %w", err)
	}

	prefix = hex.EncodeToString(raw[:4])
	plaintext = "pk_" + hex.EncodeToString(raw)

	record := APIKeyRecord{
		PK:        "APIKEY#" + prefix,
		SK:        "METADATA",
		UserID:    userID,
		UserName:  userName,
		KeyHash:   hashKey(plaintext),
		Name:      keyName,
		Status:    "active",
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return "", "", fmt.Errorf("marshal API key: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.tableName,
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		return "", "", fmt.Errorf("store API key: %w", err)
	}
	return plaintext, prefix, nil
}

// RevokeAPIKey marks an API key as revoked.
func (s *Store) RevokeAPIKey(ctx context.Context, prefix string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        &s.tableName,
		Key:              apiKeyKey(prefix),
		UpdateExpression: aws.String("SET #status = :status"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: "revoked"},
		},
	})
	if err != nil {
		return fmt.Errorf("revoke API key: %w", err)
	}
	return nil
}
