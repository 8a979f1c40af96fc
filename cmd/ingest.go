package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"modqueue/internal/bootstrap"
	"modqueue/internal/bootstrap/logging"
	"modqueue/internal/errs"
	"modqueue/internal/usecase/moderation"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Submit content records into the moderation queue",
	Long:  "Submit one record from flags, or a batch from a YAML file with --file.",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svc *moderation.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		file, _ := cmd.Flags().GetString("file")
		var inputs []moderation.IngestInput
		if strings.TrimSpace(file) != "" {
			loaded, err := loadIngestFile(file)
			if err != nil {
				return err
			}
			inputs = loaded
		} else {
			input, err := ingestInputFromFlags(cmd)
			if err != nil {
				return err
			}
			inputs = []moderation.IngestInput{input}
		}

		for _, input := range inputs {
			record, err := svc.IngestRecord(ctx, input)
			if err != nil {
				logging.Error(ctx, "ingest record failed", slog.String("record_id", input.ID), slog.Any("err", errs.Loggable(err)))
				return errs.Wrapf(err, "ingest record %q", input.ID)
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "ingested: %s kind=%s status=%s\n", record.ID, record.Kind, renderStatus(record.Status)); err != nil {
				return errs.Wrap(err, "write ingest output")
			}
		}
		return nil
	}),
}

type ingestFile struct {
	Records []ingestFileRecord `yaml:"records"`
}

type ingestFileRecord struct {
	ID     string `yaml:"id"`
	Kind   string `yaml:"kind"`
	Author struct {
		ID          string `yaml:"id"`
		DisplayName string `yaml:"display_name"`
	} `yaml:"author"`
	Body         string   `yaml:"body"`
	Flags        []string `yaml:"flags"`
	QualityScore int      `yaml:"quality_score"`
	SpamScore    int      `yaml:"spam_score"`
	SubmittedAt  string   `yaml:"submitted_at"`
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().String("file", "", "YAML file with a records list (replaces the single-record flags)")
	ingestCmd.Flags().String("id", "", "Record id (generated when empty)")
	ingestCmd.Flags().String("kind", "post", "Record kind: post, comment or user")
	ingestCmd.Flags().String("author", "", "Author id")
	ingestCmd.Flags().String("author-name", "", "Author display name")
	ingestCmd.Flags().String("body", "", "Content body")
	ingestCmd.Flags().String("body-file", "", "Read content body from file")
	ingestCmd.Flags().StringSlice("flag", nil, "Automated flag (repeatable)")
	ingestCmd.Flags().Int("quality", 50, "Quality score 0-100")
	ingestCmd.Flags().Int("spam", 0, "Spam score 0-100")
	ingestCmd.Flags().String("submitted-at", "", "Submission time in RFC3339 (default: now)")
}

func ingestInputFromFlags(cmd *cobra.Command) (moderation.IngestInput, error) {
	id, _ := cmd.Flags().GetString("id")
	kind, _ := cmd.Flags().GetString("kind")
	author, _ := cmd.Flags().GetString("author")
	authorName, _ := cmd.Flags().GetString("author-name")
	flags, _ := cmd.Flags().GetStringSlice("flag")
	quality, _ := cmd.Flags().GetInt("quality")
	spam, _ := cmd.Flags().GetInt("spam")
	submittedRaw, _ := cmd.Flags().GetString("submitted-at")

	body, err := resolveRecordBody(cmd)
	if err != nil {
		return moderation.IngestInput{}, err
	}
	submittedAt, err := parseSubmittedAt(submittedRaw)
	if err != nil {
		return moderation.IngestInput{}, err
	}

	return moderation.IngestInput{
		ID:           id,
		Kind:         kind,
		AuthorID:     author,
		AuthorName:   authorName,
		Body:         body,
		Flags:        flags,
		QualityScore: quality,
		SpamScore:    spam,
		SubmittedAt:  submittedAt,
	}, nil
}

func loadIngestFile(path string) ([]moderation.IngestInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrapf(err, "read ingest file %q", path)
	}

	var file ingestFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errs.Wrapf(err, "decode ingest file %q", path)
	}
	if len(file.Records) == 0 {
		return nil, fmt.Errorf("ingest file %q has no records", path)
	}

	out := make([]moderation.IngestInput, 0, len(file.Records))
	for i, rec := range file.Records {
		submittedAt, err := parseSubmittedAt(rec.SubmittedAt)
		if err != nil {
			return nil, errs.Wrapf(err, "records[%d]", i)
		}
		out = append(out, moderation.IngestInput{
			ID:           rec.ID,
			Kind:         rec.Kind,
			AuthorID:     rec.Author.ID,
			AuthorName:   rec.Author.DisplayName,
			Body:         rec.Body,
			Flags:        rec.Flags,
			QualityScore: rec.QualityScore,
			SpamScore:    rec.SpamScore,
			SubmittedAt:  submittedAt,
		})
	}
	return out, nil
}

func parseSubmittedAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errs.Wrapf(err, "parse submitted_at %q", raw)
	}
	return ts, nil
}

func resolveRecordBody(cmd *cobra.Command) (string, error) {
	inlineBody, _ := cmd.Flags().GetString("body")
	bodyFile, _ := cmd.Flags().GetString("body-file")

	if strings.TrimSpace(inlineBody) != "" && strings.TrimSpace(bodyFile) != "" {
		return "", errors.New("body and body-file are mutually exclusive")
	}
	if strings.TrimSpace(bodyFile) != "" {
		raw, err := os.ReadFile(bodyFile)
		if err != nil {
			return "", errs.Wrapf(err, "read body file %q", bodyFile)
		}
		return string(raw), nil
	}
	return inlineBody, nil
}
