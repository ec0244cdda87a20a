// Package store persists published podcasts and API-key identities in a
// single DynamoDB table.
package store

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/oklog/ulid/v2"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Podcast is the DynamoDB record for a published podcast.
type Podcast struct {
	PK             string  `dynamodbav:"PK" json:"-"`
	SK             string  `dynamodbav:"SK" json:"-"`
	GSI1PK         string  `dynamodbav:"GSI1PK" json:"-"`           // PODCASTS
	GSI1SK         string  `dynamodbav:"GSI1SK" json:"-"`           // {createdAt}#{id}
	GSI2PK         string  `dynamodbav:"GSI2PK,omitempty" json:"-"` // AUTHOR#{authorId}
	GSI2SK         string  `dynamodbav:"GSI2SK,omitempty" json:"-"`
	ID             string  `dynamodbav:"podcastId" json:"id"`
	Title          string  `dynamodbav:"podcastTitle" json:"podcastTitle"`
	Description    string  `dynamodbav:"podcastDescription" json:"podcastDescription"`
	AudioURL       string  `dynamodbav:"audioUrl" json:"audioUrl"`
	AudioStorageID string  `dynamodbav:"audioStorageId" json:"audioStorageId"`
	ImageURL       string  `dynamodbav:"imageUrl" json:"imageUrl"`
	ImageStorageID string  `dynamodbav:"imageStorageId" json:"imageStorageId"`
	VoiceType      string  `dynamodbav:"voiceType" json:"voiceType"`
	VoicePrompt    string  `dynamodbav:"voicePrompt" json:"voicePrompt"`
	ImagePrompt    string  `dynamodbav:"imagePrompt" json:"imagePrompt"`
	Views          int     `dynamodbav:"views" json:"views"`
	AudioDuration  float64 `dynamodbav:"audioDuration" json:"audioDuration"`
	AuthorID       string  `dynamodbav:"authorId,omitempty" json:"authorId,omitempty"`
	Author         string  `dynamodbav:"author,omitempty" json:"author,omitempty"`
	CreatedAt      string  `dynamodbav:"createdAt" json:"createdAt"`
}

// Store handles DynamoDB operations for podcasts and API keys.
type Store struct {
	client    DynamoAPI
	tableName string
	now       func() time.Time
}

// NewStore creates a DynamoDB store.
func NewStore(client DynamoAPI, tableName string) *Store {
	return &Store{client: client, tableName: tableName, now: time.Now}
}

// NewPodcastID generates a ULID for a new podcast.
func NewPodcastID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generate ulid: %w", err)
	}
	return id.String(), nil
}

func podcastKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "PODCAST#" + id},
		"SK": &types.AttributeValueMemberS{Value: "METADATA"},
	}
}

// CreatePodcast inserts a podcast. ID and CreatedAt are filled in when empty;
// views always start at zero.
func (s *Store) CreatePodcast(ctx context.Context, p *Podcast) error {
	if p.ID == "" {
		id, err := NewPodcastID()
		if err != nil {
			return err
		}
		p.ID = id
	}
	if p.CreatedAt == "" {
		p.CreatedAt = s.now().UTC().Format(time.RFC3339)
	}
	p.PK = "PODCAST#" + p.ID
	p.SK = "METADATA"
	p.GSI1PK = "PODCASTS"
	p.GSI1SK = p.CreatedAt + "#" + p.ID
	if p.AuthorID != "" {
		p.GSI2PK = "AUTHOR#" + p.AuthorID
		p.GSI2SK = p.GSI1SK
	}
	p.Views = 0

	av, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal podcast item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.tableName,
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		return fmt.Errorf("put podcast item: %w", err)
	}
	return nil
}

// GetPodcast retrieves a single podcast by ID.
func (s *Store) GetPodcast(ctx context.Context, id string) (*Podcast, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key:       podcastKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("get podcast: %w", err)
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	var item Podcast
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal podcast: %w", err)
	}
	return &item, nil
}

// ListPodcasts returns podcasts newest first via GSI1. The cursor is the
// GSI1SK of the last item on the previous page.
func (s *Store) ListPodcasts(ctx context.Context, limit int, cursor string) ([]Podcast, string, error) {
	return s.queryIndex(ctx, "GSI1", "PODCASTS", limit, cursor)
}

// ListAuthorPodcasts returns one author's podcasts newest first via GSI2.
func (s *Store) ListAuthorPodcasts(ctx context.Context, authorID string, limit int, cursor string) ([]Podcast, string, error) {
	return s.queryIndex(ctx, "GSI2", "AUTHOR#"+authorID, limit, cursor)
}

func (s *Store) queryIndex(ctx context.Context, index, partition string, limit int, cursor string) ([]Podcast, string, error) {
	if limit <= 0 {
		limit = 20
	}
	pkAttr, skAttr := index+"PK", index+"SK"

	input := &dynamodb.QueryInput{
		TableName:              &s.tableName,
		IndexName:              aws.String(index),
		KeyConditionExpression: aws.String(pkAttr + " = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: partition},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	}

	if cursor != "" {
		parts := strings.SplitN(cursor, "#", 2)
		if len(parts) != 2 || parts[1] == "" {
			return nil, "", fmt.Errorf("invalid cursor format")
		}
		input.ExclusiveStartKey = podcastKey(parts[1])
		input.ExclusiveStartKey[pkAttr] = &types.AttributeValueMemberS{Value: partition}
		input.ExclusiveStartKey[skAttr] = &types.AttributeValueMemberS{Value: cursor}
	}

	result, err := s.client.Query(ctx, input)
	if err != nil {
		return nil, "", fmt.Errorf("list podcasts: %w", err)
	}

	var items []Podcast
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
		return nil, "", fmt.Errorf("unmarshal podcast list: %w", err)
	}

	var nextCursor string
	if result.LastEvaluatedKey != nil {
		if sk, ok := result.LastEvaluatedKey[skAttr].(*types.AttributeValueMemberS); ok {
			nextCursor = sk.Value
		}
	}
	return items, nextCursor, nil
}

// IncrementViews adds n to a podcast's view count.
func (s *Store) IncrementViews(ctx context.Context, id string, n int) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           &s.tableName,
		Key:                 podcastKey(id),
		UpdateExpression:    aws.String("ADD #views :n"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeNames: map[string]string{
			"#views": "views",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", n)},
		},
	})
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// Checkpoint returns a named checkpoint timestamp, or the epoch if unset.
func (s *Store) Checkpoint(ctx context.Context, name string) (string, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "SYSTEM#" + name},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return "", fmt.Errorf("get checkpoint: %w", err)
	}
	if v, ok := result.Item["lastProcessed"].(*types.AttributeValueMemberS); ok {
		return v.Value, nil
	}
	return "1970-01-01T00:00:00Z", nil
}

// SetCheckpoint records a named checkpoint timestamp.
func (s *Store) SetCheckpoint(ctx context.Context, name, ts string) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item: map[string]types.AttributeValue{
			"PK":            &types.AttributeValueMemberS{Value: "SYSTEM#" + name},
			"SK":            &types.AttributeValueMemberS{Value: "METADATA"},
			"lastProcessed": &types.AttributeValueMemberS{Value: ts},
		},
	})
	if err != nil {
		return fmt.Errorf("set checkpoint: %w", err)
	}
	return nil
}
