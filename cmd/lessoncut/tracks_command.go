package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lessoncut/internal/tracks"
)

func newTracksCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "tracks",
		Short:       "List timeline tracks and the content they accept",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			list := tracks.List()
			rows := make([][]string, 0, len(list))
			for _, tr := range list {
				accepts := make([]string, 0, len(tr.Accepts))
				for _, kind := range tr.Accepts {
					accepts = append(accepts, label(string(kind)))
				}
				rows = append(rows, []string{
					strconv.Itoa(tr.Number),
					tr.Name,
					tr.ID,
					strings.Join(accepts, ", "),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Track", "ID", "Accepts"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

// resolveTrack accepts a track number, id or display name.
func resolveTrack(value string) (tracks.Track, error) {
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		if tr, ok := tracks.ByNumber(n); ok {
			return tr, nil
		}
		return tracks.Track{}, fmt.Errorf("unknown track %d", n)
	}
	if tr, ok := tracks.ByName(value); ok {
		return tr, nil
	}
	return tracks.Track{}, fmt.Errorf("unknown track %q", value)
}
