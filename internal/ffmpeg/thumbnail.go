package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// ThumbnailSeek picks the frame to grab: 10% into the video, clamped to
// [1s, 5min]. Unknown durations use 5s.
func ThumbnailSeek(duration float64) float64 {
	if duration <= 0 {
		return 5
	}
	seek := duration * 0.10
	if seek < 1 {
		seek = 1
	}
	if seek > 300 {
		seek = 300
	}
	return seek
}

// GenerateThumbnail writes a 320px wide JPEG of inputPath to outputPath.
func (p Prober) GenerateThumbnail(ctx context.Context, inputPath, outputPath string, duration float64) error {
	name := p.FFmpeg
	if name == "" {
		name = "ffmpeg"
	}
	bin, err := exec.LookPath(name)
	if err != nil {
		return ErrUnavailable
	}

	cmd := exec.CommandContext(ctx, bin,
		"-hide_banner", "-loglevel", "error",
		"-ss", strconv.FormatFloat(ThumbnailSeek(duration), 'f', 2, 64),
		"-i", inputPath,
		"-vframes", "1",
		"-vf", "scale=320:-1",
		"-y",
		outputPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
