package export

import (
	"log/slog"
	"math"

	"lessoncut/internal/assets"
	"lessoncut/internal/logging"
	"lessoncut/internal/project"
	"lessoncut/internal/render"
)

// buildComposition converts the project's timeline into frame units and
// attaches each clip's asset. Clips whose asset is missing are still
// rendered; the renderer decides how to paint them.
func buildComposition(proj *project.Project, store assets.Store, p plan, logger *slog.Logger) render.Composition {
	fps := float64(p.FPS)
	clips := proj.Timeline().Clips()
	out := render.Composition{
		DurationInFrames: p.DurationInFrames,
		FPS:              p.FPS,
		Width:            p.Width,
		Height:           p.Height,
		Clips:            make([]render.CompositionClip, 0, len(clips)),
	}
	for _, clip := range clips {
		cc := render.CompositionClip{
			ID:               clip.ID,
			Track:            clip.Track,
			Kind:             clip.Kind,
			StartFrame:       int(math.Round(clip.StartTime * fps)),
			DurationInFrames: max(1, int(math.Round(clip.Duration*fps))),
			Properties:       clip.Properties,
			Keyframes:        clip.Keyframes,
		}
		if clip.AssetID != "" {
			if asset, ok := store.GetAssetByID(clip.AssetID); ok {
				cc.Asset = &asset
			} else {
				logging.WarnWithContext(logger, "clip references unknown asset", "asset_missing",
					logging.String("clip_id", clip.ID),
					logging.String("asset_id", clip.AssetID),
					logging.String(logging.FieldErrorHint, "re-import the asset or remove the clip"),
					logging.String(logging.FieldImpact, "clip renders without source media"),
				)
			}
		}
		out.Clips = append(out.Clips, cc)
	}
	return out
}
