// 命令 map-render：从本地拓扑文件渲染选举地图快照（SVG/PNG）
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tw-vote-map/internal/election"
	"tw-vote-map/internal/geo"
	"tw-vote-map/internal/logger"
	"tw-vote-map/internal/mapview"
	"tw-vote-map/internal/store"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load(".env")
	logger.SetupWriter(os.Stderr, os.Getenv("LOG_LEVEL"), "text")

	rootCmd := &cobra.Command{
		Use:   "map-render",
		Short: "Render Taiwan presidential election choropleth snapshots",
	}
	var topoDir string
	rootCmd.PersistentFlags().StringVar(&topoDir, "topo-dir", filepath.Join("data", "map-topo-json"), "directory holding COUNTY.json and TOWNSHIP.json")

	rootCmd.AddCommand(renderCmd(&topoDir))
	rootCmd.AddCommand(regionsCmd(&topoDir))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func renderCmd(topoDir *string) *cobra.Command {
	var (
		stylePath   string
		electionDir string
		out         string
		flags       Style
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one selection to an SVG or PNG file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			style := DefaultStyle()
			if stylePath != "" {
				s, err := LoadStyle(stylePath)
				if err != nil {
					return err
				}
				style = s
			}
			style = style.Override(cmd.Flags().Changed, flags)
			if err := style.Validate(); err != nil {
				return err
			}
			return runRender(cmd.Context(), *topoDir, electionDir, out, style)
		},
	}
	cmd.Flags().StringVar(&stylePath, "style", "", "YAML style file")
	cmd.Flags().StringVar(&electionDir, "election-dir", "", "directory of <year>/*.json election results used for colouring")
	cmd.Flags().StringVarP(&out, "out", "o", "map.svg", "output file; .png rasterises")
	cmd.Flags().StringVar(&flags.Year, "year", "", "election year")
	cmd.Flags().StringVar(&flags.Region, "region", "", "region code, ALL for the whole island")
	cmd.Flags().StringVar(&flags.District, "district", "", "district code")
	cmd.Flags().Float64VarP(&flags.Width, "width", "W", 0, "viewport width")
	cmd.Flags().Float64VarP(&flags.Height, "height", "H", 0, "viewport height")
	return cmd
}

func regionsCmd(topoDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "regions [region-code]",
		Short: "List region options, or the districts of one region",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := geo.NewLoader(geo.FileSource{Dir: *topoDir}).Load(cmd.Context())
			if err != nil {
				return err
			}
			opts := c.RegionOptions()
			if len(args) == 1 {
				opts = c.DistrictOptions(args[0])
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(opts)
		},
	}
}

func runRender(ctx context.Context, topoDir, electionDir, out string, style Style) error {
	if ctx == nil {
		ctx = context.Background()
	}
	l := logger.L()
	t0 := time.Now()
	c, err := geo.NewLoader(geo.FileSource{Dir: topoDir}).Load(ctx)
	if err != nil {
		return err
	}
	colors := election.ColorMap{}
	if electionDir != "" {
		m, err := store.FileColors{Dir: electionDir}.Colors(ctx, style.Year)
		if err != nil {
			return err
		}
		colors = m
	}
	colors = election.Merge(colors, style.Colors)

	v := mapview.New(mapview.Options{Width: style.Width, Height: style.Height, CameraDuration: -1})
	defer v.Close()
	v.SetColors(colors)
	if err := v.Mount(c.Regions, c.Districts); err != nil {
		return err
	}
	if err := v.SelectRegion(ctx, style.Region); err != nil {
		return err
	}
	if err := v.SelectDistrict(style.District); err != nil {
		return err
	}
	var buf bytes.Buffer
	if strings.EqualFold(filepath.Ext(out), ".png") {
		err = v.WritePNG(&buf)
	} else {
		err = v.WriteSVG(&buf)
	}
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return err
	}
	l.Info("render_done", "out", out, "year", style.Year, "region", style.Region, "bytes", buf.Len(), "duration_ms", time.Since(t0).Milliseconds())
	return nil
}
