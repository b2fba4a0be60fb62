package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fit",
		Short: "Fit a model on the full dataset and save it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			frame, err := a.loadFrame()
			if err != nil {
				return err
			}
			m, err := a.newModel()
			if err != nil {
				return err
			}
			if err := m.Fit(frame); err != nil {
				return err
			}
			if err := m.SaveModel(a.cfg.Train.SaveDir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fit SARIMA%s, saved to %s\n", m.Order(), m.LastSavedPath())
			return nil
		},
	}
}
