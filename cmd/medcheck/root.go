package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Skufu/medsafe/internal/engine"
	"github.com/Skufu/medsafe/internal/kb"
	"github.com/Skufu/medsafe/internal/report"
	"github.com/Skufu/medsafe/internal/severity"
)

type rootOptions struct {
	kbDir   string
	kbFiles []string
	policy  string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "medcheck",
		Short:         "Check a medicine against conditions, current medications and food",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.kbDir, "kb", "kb", "knowledge base directory")
	cmd.PersistentFlags().StringSliceVar(&opts.kbFiles, "kb-files", nil, "fact files to load (default: all standard files)")
	cmd.PersistentFlags().StringVar(&opts.policy, "policy", "", "severity policy YAML file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log knowledge base loading")

	cmd.AddCommand(newCheckCmd(opts), newDrugsCmd(opts))
	return cmd
}

func (o *rootOptions) logger(errOut io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(errOut)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if !o.verbose {
		logger.SetLevel(logrus.WarnLevel)
	}
	return logger
}

func (o *rootOptions) load(errOut io.Writer) (*kb.KnowledgeBase, *severity.Classifier, error) {
	knowledge, err := kb.LoadDir(o.kbDir, o.kbFiles, o.logger(errOut))
	if err != nil {
		return nil, nil, err
	}
	classifier := severity.Default()
	if o.policy != "" {
		if classifier, err = severity.LoadFile(o.policy); err != nil {
			return nil, nil, err
		}
	}
	return knowledge, classifier, nil
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	var (
		drugID     string
		conditions []string
		meds       []string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a safety check for one medicine",
		RunE: func(cmd *cobra.Command, args []string) error {
			knowledge, classifier, err := root.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			req, err := engine.NewCheckRequest(drugID, conditions, meds)
			if err != nil {
				return err
			}

			ev := engine.NewEvaluator(engine.NewResolver(knowledge, classifier), root.logger(cmd.ErrOrStderr()))
			res, err := ev.Evaluate(req)
			if errors.Is(err, kb.ErrUnknownDrug) {
				return fmt.Errorf("%s (%s)", report.UnknownMessage, req.QueryDrugID)
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			return report.Write(cmd.OutOrStdout(), res, knowledge)
		},
	}
	cmd.Flags().StringVarP(&drugID, "drug", "d", "", "drug id to check")
	cmd.Flags().StringSliceVarP(&conditions, "condition", "c", nil, "ongoing condition (repeatable)")
	cmd.Flags().StringSliceVarP(&meds, "med", "m", nil, "current medication id (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("drug")
	return cmd
}

func newDrugsCmd(root *rootOptions) *cobra.Command {
	var (
		query string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "drugs",
		Short: "List drugs in the knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			knowledge, _, err := root.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			for _, d := range knowledge.Search(query, limit) {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), d.Label); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "case-insensitive label filter")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of drugs (0 for all)")
	return cmd
}
