package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func (c *cli) ufsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ufs",
		Short: "List the UFs of the dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.app()
			if err != nil {
				return err
			}
			ds, err := a.Datasets.Get()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(ds.UFs(), " "))
			return nil
		},
	}
}

func (c *cli) municipalitiesCmd() *cobra.Command {
	var uf string
	cmd := &cobra.Command{
		Use:     "municipios",
		Aliases: []string{"municipalities"},
		Short:   "List the municipalities of a UF",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.app()
			if err != nil {
				return err
			}
			ds, err := a.Datasets.Get()
			if err != nil {
				return err
			}
			list := ds.Municipalities(uf)
			if len(list) == 0 {
				return fmt.Errorf("no municipalities for UF %q", uf)
			}
			rows := make([][]string, 0, len(list))
			for _, m := range list {
				rows = append(rows, []string{m.Name, fmt.Sprint(m.Zones), humanize.Comma(int64(m.Electorate))})
			}
			renderTable(cmd.OutOrStdout(), []string{"Município", "Zonas", "Eleitores"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&uf, "uf", "", "UF (two letters)")
	_ = cmd.MarkFlagRequired("uf")
	return cmd
}
