package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/miradorstack/cluster-atlas/internal/api"
	"github.com/miradorstack/cluster-atlas/internal/models"
)

func newShareCmd() *cobra.Command {
	var cluster string
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Percentage of each region's cases assigned to a cluster",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := fromCommand(cmd)
			if err != nil {
				return err
			}
			id, err := api.ParseClusterID(cluster)
			if err != nil {
				return err
			}
			res, err := cc.service.Shares(cmd.Context(), models.ShareRequest{ClusterID: id})
			if err != nil {
				return err
			}
			return cc.writeJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&cluster, "cluster", "", "cluster id (default: configured highlight cluster)")
	return cmd
}

func newDominantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dominant",
		Short: "Most frequent cluster of every region",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := fromCommand(cmd)
			if err != nil {
				return err
			}
			res, err := cc.service.Dominant(cmd.Context())
			if err != nil {
				return err
			}
			return cc.writeJSON(cmd, res)
		},
	}
}

func newDistributionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "distribution <region-code>",
		Short: "Cluster breakdown of one region",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := fromCommand(cmd)
			if err != nil {
				return err
			}
			res, err := cc.service.Distribution(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return cc.writeJSON(cmd, res)
		},
	}
}

func newChoroplethCmd() *cobra.Command {
	var (
		cluster string
		mode    string
	)
	cmd := &cobra.Command{
		Use:   "choropleth",
		Short: "Boundary GeoJSON with the selected metric joined per region",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := fromCommand(cmd)
			if err != nil {
				return err
			}
			id, err := api.ParseClusterID(cluster)
			if err != nil {
				return err
			}
			fc, err := cc.service.Choropleth(cmd.Context(), models.ChoroplethRequest{
				Mode:      models.MetricMode(strings.ToLower(mode)),
				ClusterID: id,
			})
			if err != nil {
				return err
			}
			data, err := fc.MarshalJSON()
			if err != nil {
				return fmt.Errorf("encode geojson: %w", err)
			}
			return cc.writeOutput(cmd, append(data, '\n'))
		},
	}
	cmd.Flags().StringVar(&cluster, "cluster", "", "cluster id for share mode (default: configured highlight cluster)")
	cmd.Flags().StringVar(&mode, "mode", string(models.MetricShare), "metric: share or dominant")
	return cmd
}
