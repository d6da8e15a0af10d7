package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"lessoncut/internal/assets"
	"lessoncut/internal/placement"
	"lessoncut/internal/project"
	"lessoncut/internal/tracks"
)

type assetFlags struct {
	id       string
	name     string
	kind     string
	mime     string
	ext      string
	language string
}

func (f *assetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.id, "id", "", "Asset identifier")
	cmd.Flags().StringVar(&f.name, "name", "", "Asset file name")
	cmd.Flags().StringVar(&f.kind, "kind", "", "Asset kind (code, video, audio, image, title, visual-asset); inferred when empty")
	cmd.Flags().StringVar(&f.mime, "mime", "", "Asset mime type")
	cmd.Flags().StringVar(&f.ext, "ext", "", "Asset file extension")
	cmd.Flags().StringVar(&f.language, "language", "", "Programming language of a code asset")
}

func (f *assetFlags) set() bool {
	return strings.TrimSpace(f.name) != "" || strings.TrimSpace(f.kind) != ""
}

func (f *assetFlags) asset() (assets.Asset, error) {
	a := assets.Asset{
		ID:        strings.TrimSpace(f.id),
		Name:      strings.TrimSpace(f.name),
		Kind:      assets.Kind(strings.ToLower(strings.TrimSpace(f.kind))),
		MimeType:  strings.TrimSpace(f.mime),
		Extension: strings.TrimSpace(f.ext),
		Language:  strings.TrimSpace(f.language),
	}
	if a.Kind == "" {
		a.Kind = assets.InferKind(a.MimeType, a.Ext())
	}
	if a.Kind == "" {
		return assets.Asset{}, errors.New("cannot infer asset kind; pass --kind")
	}
	if a.ID == "" {
		a.ID = a.Name
	}
	return a, nil
}

func newSuggestCommand() *cobra.Command {
	var flags assetFlags
	var projectPath string
	var at float64
	var selected string

	cmd := &cobra.Command{
		Use:         "suggest",
		Short:       "Suggest the best track for an asset",
		Long:        "Suggest a track for a single asset described by flags, or for every asset of a project when --project is given without asset flags.",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			pctx := &placement.Context{CurrentTime: at}
			if strings.TrimSpace(selected) != "" {
				tr, err := resolveTrack(selected)
				if err != nil {
					return err
				}
				pctx.UserSelectedTrackNumber = tr.Number
			}

			var list []assets.Asset
			if strings.TrimSpace(projectPath) != "" {
				proj, err := project.Load(projectPath)
				if err != nil {
					return err
				}
				pctx.ExistingClips = proj.Timeline().Clips()
				if !flags.set() {
					list = proj.Assets
				}
			}
			if flags.set() {
				a, err := flags.asset()
				if err != nil {
					return err
				}
				list = []assets.Asset{a}
			}
			if len(list) == 0 {
				return errors.New("describe an asset with --name/--kind or pass --project")
			}

			printSuggestions(cmd.OutOrStdout(), list, placement.SuggestBatch(list, pctx))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&projectPath, "project", "p", "", "Project file supplying timeline context")
	cmd.Flags().Float64Var(&at, "at", 0, "Playhead position in seconds")
	cmd.Flags().StringVar(&selected, "selected-track", "", "Track currently selected in the editor (number, id or name)")
	return cmd
}

func printSuggestions(out io.Writer, list []assets.Asset, suggestions []placement.Suggestion) {
	rows := make([][]string, 0, len(suggestions))
	for i, s := range suggestions {
		alts := make([]string, 0, len(s.Alternatives))
		for _, alt := range s.Alternatives {
			alts = append(alts, alt.Name)
		}
		name := list[i].Name
		if name == "" {
			name = list[i].ID
		}
		rows = append(rows, []string{
			name,
			label(string(list[i].Kind)),
			s.SuggestedTrack.Name,
			formatConfidence(s.Confidence),
			s.Reason,
			strings.Join(alts, ", "),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Asset", "Kind", "Track", "Confidence", "Reason", "Alternatives"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	))
}

func newValidatePlacementCommand() *cobra.Command {
	var flags assetFlags
	var target string

	cmd := &cobra.Command{
		Use:         "validate-placement",
		Short:       "Check whether an asset may be dropped on a track",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.asset()
			if err != nil {
				return err
			}
			tr, err := resolveTrack(target)
			if err != nil {
				return err
			}
			v := placement.ValidatePlacement(a, tr)
			printValidation(cmd.OutOrStdout(), tr, v)
			if !v.IsValid {
				return fmt.Errorf("%s cannot be placed on the %s track", label(string(a.Kind)), tr.Name)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&target, "track", "t", "", "Target track (number, id or name)")
	_ = cmd.MarkFlagRequired("track")
	return cmd
}

func printValidation(out io.Writer, tr tracks.Track, v placement.Validation) {
	fmt.Fprintf(out, "Track: %s\n", tr.Name)
	fmt.Fprintf(out, "Valid: %s\n", yesNo(v.IsValid))
	for _, c := range v.Conflicts {
		fmt.Fprintf(out, "  conflict: %s\n", c)
	}
	for _, w := range v.Warnings {
		fmt.Fprintf(out, "  warning: %s\n", w)
	}
	if v.Suggestion != nil {
		fmt.Fprintf(out, "Suggested: %s (%s) %s\n", v.Suggestion.SuggestedTrack.Name, formatConfidence(v.Suggestion.Confidence), v.Suggestion.Reason)
	}
}
