package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/apresai/podcastr/internal/audio"
	"github.com/apresai/podcastr/internal/progress"
	"github.com/apresai/podcastr/internal/source"
	"github.com/apresai/podcastr/internal/store"
	"github.com/apresai/podcastr/internal/studio"
)

var (
	flagTitle       string
	flagDescription string
	flagVoice       string
	flagVoicePrompt string
	flagImagePrompt string
	flagSuggest     bool
	flagFrom        string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate narration and a thumbnail, then publish a podcast",
	RunE:  runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVarP(&flagTitle, "title", "t", "", "Podcast title")
	createCmd.Flags().StringVarP(&flagDescription, "description", "d", "", "Podcast description")
	createCmd.Flags().StringVarP(&flagVoice, "voice", "V", "", "Narrator voice (see list-voices)")
	createCmd.Flags().StringVarP(&flagVoicePrompt, "voice-prompt", "p", "", "Text to narrate")
	createCmd.Flags().StringVarP(&flagImagePrompt, "image-prompt", "i", "", "Thumbnail description")
	createCmd.Flags().BoolVar(&flagSuggest, "suggest", false, "Draft missing prompts from the title and description")
	createCmd.Flags().StringVarP(&flagFrom, "from", "f", "", "Narrate a web article, PDF or text file instead of --voice-prompt")
	_ = createCmd.MarkFlagRequired("description")
	_ = createCmd.MarkFlagRequired("voice")
}

// createInput is what a creation run needs from the user.
type createInput struct {
	Title       string
	Description string
	Voice       string
	VoicePrompt string
	ImagePrompt string
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	key, keySource, err := resolveAPIKey()
	if err != nil {
		return err
	}
	author, err := a.Store.ValidateAPIKey(ctx, "Bearer "+key)
	if err != nil {
		return fmt.Errorf("API key from %s: %w", keySource, err)
	}

	in := createInput{
		Title:       flagTitle,
		Description: flagDescription,
		Voice:       flagVoice,
		VoicePrompt: flagVoicePrompt,
		ImagePrompt: flagImagePrompt,
	}
	if flagFrom != "" {
		doc, err := (&source.Loader{}).Load(ctx, flagFrom)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Loaded %s (%d words)\n", doc.Origin, doc.WordCount)
		applyDocument(&in, doc)
	}
	if in.Title == "" {
		return fmt.Errorf("--title is required unless --from provides one")
	}
	if flagSuggest && (in.VoicePrompt == "" || in.ImagePrompt == "") {
		if a.Suggester == nil {
			return fmt.Errorf("--suggest needs ANTHROPIC_API_KEY or SUGGEST_MODEL=nova-lite")
		}
		fmt.Fprint(cmd.ErrOrStderr(), "Drafting prompts...")
		p, err := a.Suggester.Suggest(ctx, in.Title, in.Description)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), " failed")
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), " done")
		if in.VoicePrompt == "" {
			in.VoicePrompt = p.VoicePrompt
		}
		if in.ImagePrompt == "" {
			in.ImagePrompt = p.ImagePrompt
		}
	}

	deps := a.StudioDeps()
	deps.Notifier = toastPrinter{out: cmd.ErrOrStderr()}

	r := progress.NewBarRenderer(os.Stdout)
	defer r.Finish()

	p, err := createPodcast(ctx, deps, author, in, r.Handle)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  Audio: %s\n  Image: %s\n", p.AudioURL, p.ImageURL)
	return nil
}

// applyDocument narrates doc unless a voice prompt was given, and uses its
// title when none was.
func applyDocument(in *createInput, doc *source.Document) {
	if in.VoicePrompt == "" {
		in.VoicePrompt = doc.Text
	}
	if in.Title == "" {
		in.Title = doc.Title
	}
}

// createPodcast drives a form through generation and submission,
// reporting each step to onProgress.
func createPodcast(ctx context.Context, deps studio.Deps, author store.Identity, in createInput, onProgress progress.Callback) (*store.Podcast, error) {
	if onProgress == nil {
		onProgress = progress.NopCallback
	}
	start := time.Now()
	fail := func(stage progress.Stage, err error) (*store.Podcast, error) {
		e := progress.NewEvent(stage, "failed", 0, start)
		e.Error = err
		onProgress(e)
		return nil, err
	}

	form := studio.New(deps, author)
	form.SetTitle(in.Title)
	form.SetDescription(in.Description)
	form.SetVoicePrompt(in.VoicePrompt)
	form.SetImagePrompt(in.ImagePrompt)
	if err := form.SelectVoice(in.Voice); err != nil {
		return fail(progress.StageAudio, err)
	}

	onProgress(progress.NewEvent(progress.StageAudio, "Generating narration...", 0.05, start))
	if err := form.GenerateAudio(ctx); err != nil {
		return fail(progress.StageAudio, err)
	}

	onProgress(progress.NewEvent(progress.StageThumbnail, "Generating thumbnail...", 0.5, start))
	if err := form.GenerateImage(ctx); err != nil {
		return fail(progress.StageThumbnail, err)
	}

	onProgress(progress.NewEvent(progress.StagePublish, "Publishing...", 0.9, start))
	p, err := form.Submit(ctx)
	if err != nil {
		return fail(progress.StagePublish, err)
	}

	done := progress.NewEvent(progress.StageComplete, "Podcast created", 1, start)
	done.PodcastID = p.ID
	if p.AudioDuration > 0 {
		done.Duration = audio.FormatDuration(p.AudioDuration)
	}
	onProgress(done)
	return p, nil
}

// toastPrinter shows notifications as single lines.
type toastPrinter struct {
	out io.Writer
}

func (t toastPrinter) Notify(_ context.Context, n studio.Notification) {
	prefix := "•"
	if n.Variant == studio.VariantDestructive {
		prefix = "✗"
	}
	if n.Description != "" {
		fmt.Fprintf(t.out, "%s %s: %s\n", prefix, n.Title, n.Description)
		return
	}
	fmt.Fprintf(t.out, "%s %s\n", prefix, n.Title)
}

// resolveAPIKey finds the caller's API key in the environment, the
// secrets file or the user config file.
func resolveAPIKey() (key, source string, err error) {
	if k := os.Getenv("PODCASTR_API_KEY"); k != "" {
		return k, "env:PODCASTR_API_KEY", nil
	}

	home, _ := os.UserHomeDir()
	if home != "" {
		secretPath := filepath.Join(home, ".secrets", "podcastr-api-key")
		if data, err := os.ReadFile(secretPath); err == nil {
			if k := strings.TrimSpace(string(data)); k != "" {
				return k, secretPath, nil
			}
		}

		configPath := filepath.Join(home, ".config", "podcastr", "config.json")
		if data, err := os.ReadFile(configPath); err == nil {
			var cfg struct {
				APIKey string `json:"apiKey"`
			}
			if json.Unmarshal(data, &cfg) == nil && cfg.APIKey != "" {
				return cfg.APIKey, configPath, nil
			}
		}
	}

	return "", "", fmt.Errorf("API key not found: set PODCASTR_API_KEY or create ~/.config/podcastr/config.json")
}
