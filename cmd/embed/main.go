// Command embed computes the opinion-space embedding of a Polis export
// directory and prints it as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	appConversation "github.com/opinionmap/opinionmap/internal/application/conversation"
	"github.com/opinionmap/opinionmap/internal/domain"
	"github.com/opinionmap/opinionmap/internal/domain/conversation"
	"github.com/opinionmap/opinionmap/internal/domain/embedding"
	"github.com/opinionmap/opinionmap/internal/domain/matrix"
	"github.com/opinionmap/opinionmap/internal/domain/statement"
	"github.com/opinionmap/opinionmap/internal/domain/vote"
	"github.com/opinionmap/opinionmap/internal/infrastructure/polisfile"
)

type options struct {
	dir             string
	strict          bool
	minVotes        int
	components      int
	policy          string
	countSource     string
	rule            string
	centroidsSource string
	flipX           bool
	flipY           bool
	logLevel        string
	limits          vote.Limits
}

type output struct {
	*appConversation.Result
	Statements          int                   `json:"statements"`
	Bookkeeping         statement.Bookkeeping `json:"bookkeeping"`
	Centroids           [][2]float64          `json:"centroids,omitempty"`
	VoteCountMismatches []vote.CountMismatch  `json:"vote_count_mismatches,omitempty"`
}

func main() {
	var opts options
	flag.StringVar(&opts.dir, "dir", ".", "export directory with votes.json, comments.json and optional math-pca2.json")
	flag.BoolVar(&opts.strict, "strict", false, "only approved statements are active (default: approved and unmoderated)")
	flag.IntVar(&opts.minVotes, "min-votes", matrix.DefaultMinVotes, "minimum votes on active statements to keep a participant")
	flag.IntVar(&opts.components, "components", embedding.DefaultComponents, "number of principal components")
	flag.StringVar(&opts.policy, "policy", string(matrix.PolicyDrop), "unvoted statement policy (drop, zero)")
	flag.StringVar(&opts.countSource, "count-source", string(conversation.CountIngested), "vote counts used for scaling (ingested, matrix)")
	flag.StringVar(&opts.rule, "rule", "", "optional statement rule, e.g. '!is_meta'")
	flag.StringVar(&opts.centroidsSource, "centroids-source", "", "also correct centroids from the math export (group-clusters, base-clusters)")
	flag.BoolVar(&opts.flipX, "flip-x", true, "negate centroid x")
	flag.BoolVar(&opts.flipY, "flip-y", true, "negate centroid y")
	flag.StringVar(&opts.logLevel, "log-level", "info", "log level")
	flag.IntVar(&opts.limits.MaxParticipantID, "max-participant-id", vote.DefaultLimits.MaxParticipantID, "largest accepted participant id")
	flag.IntVar(&opts.limits.MaxStatementID, "max-statement-id", vote.DefaultLimits.MaxStatementID, "largest accepted statement id")
	flag.IntVar(&opts.limits.MaxCells, "max-cells", vote.DefaultLimits.MaxCells, "largest accepted vote matrix, in cells")
	flag.Parse()

	level, err := zerolog.ParseLevel(opts.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	if err := run(opts, os.Stdout, logger); err != nil {
		logger.Error().Err(err).Msg("embed failed")
		os.Exit(1)
	}
}

func run(opts options, w io.Writer, logger zerolog.Logger) error {
	settings, err := buildSettings(opts)
	if err != nil {
		return err
	}
	if err := opts.limits.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}
	exp, err := polisfile.LoadDir(opts.dir, opts.limits)
	if err != nil {
		return err
	}
	logger.Info().
		Str("dir", opts.dir).
		Int("votes", len(exp.Votes)).
		Int("statements", len(exp.Statements)).
		Bool("math", exp.Math != nil).
		Msg("export loaded")

	pipeline, err := appConversation.NewPipeline(settings, appConversation.WithMaxCells(opts.limits.MaxCells))
	if err != nil {
		return err
	}
	if err := pipeline.UpsertStatements(exp.Statements); err != nil {
		return err
	}
	if err := pipeline.Store().BulkRecord(exp.Votes); err != nil {
		return err
	}

	res, _, err := pipeline.Result()
	if err != nil {
		return err
	}
	out := output{
		Result:      res,
		Statements:  res.Matrix.Cols(),
		Bookkeeping: pipeline.Bookkeeping(),
	}

	if exp.Math != nil {
		expected, err := exp.Math.VoteCounts()
		if err != nil {
			return err
		}
		raw, err := pipeline.RawMatrix()
		if err != nil {
			return err
		}
		actual := raw.RowCounts()
		for pid, c := range actual {
			if c == 0 {
				delete(actual, pid)
			}
		}
		out.VoteCountMismatches = vote.DiffCounts(expected, actual)
		if n := len(out.VoteCountMismatches); n > 0 {
			logger.Warn().Int("participants", n).Msg("vote counts differ from math export")
		}
	}

	if opts.centroidsSource != "" {
		if exp.Math == nil {
			return fmt.Errorf("-centroids-source needs %s in %s", polisfile.MathFile, opts.dir)
		}
		source, err := embedding.ParseSource(opts.centroidsSource)
		if err != nil {
			return err
		}
		out.Centroids, err = embedding.CorrectCentroids(*exp.Math, source, embedding.WithFlipX(opts.flipX), embedding.WithFlipY(opts.flipY))
		if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func buildSettings(opts options) (conversation.Settings, error) {
	policy, err := matrix.ParsePolicy(opts.policy)
	if err != nil {
		return conversation.Settings{}, err
	}
	mode := statement.ModeLenient
	if opts.strict {
		mode = statement.ModeStrict
	}
	s := conversation.Settings{
		ModerationMode: mode,
		MinVotes:       opts.minVotes,
		Components:     opts.components,
		UnvotedPolicy:  policy,
		CountSource:    conversation.CountSource(opts.countSource),
		StatementRule:  opts.rule,
	}
	return s, s.Validate()
}
