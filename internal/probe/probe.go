// Package probe inspects audio containers offline. It is the static
// counterpart to the feed engine's suffix detection: the same extension table
// picks the parser, and the parser reports what the container actually holds.
package probe

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/tphakala/flac"

	"github.com/tphakala/audiofeed/internal/errors"
	"github.com/tphakala/audiofeed/internal/feed"
)

// go-mp3 always decodes to 16-bit stereo regardless of the source encoding,
// so those two values describe its output stream.
const (
	mp3OutputChannels     = 2
	mp3OutputBitDepth     = 16
	mp3OutputBytesPerStep = 4
)

// Info describes a probed media source.
type Info struct {
	Format     feed.Format
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
	Size       int64
}

// File probes the audio file at path. The container is picked by extension
// using the feed format table, then parsed for stream parameters.
func File(path string) (Info, error) {
	format := feed.DetectFormat(path)
	if format == feed.FormatNone {
		return Info{}, errors.New(feed.ErrUnsupportedFormat).
			Component("probe").
			Category(errors.CategoryFormat).
			Context("operation", "probe_file").
			Context("path", errors.ScrubMessage(path)).
			Build()
	}

	f, err := os.Open(path)
	if err != nil {
		return Info{}, errors.New(err).
			Component("probe").
			Category(errors.CategoryFileIO).
			Context("operation", "probe_file").
			Build()
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return Info{}, errors.New(err).
			Component("probe").
			Category(errors.CategoryFileIO).
			Context("operation", "probe_file").
			Build()
	}

	info, err := parse(format, f)
	if err != nil {
		return Info{}, err
	}
	info.Size = stat.Size()
	return info, nil
}

// Bytes probes an in-memory source. The name is only used for extension
// detection, so any string ending in a supported suffix works.
func Bytes(name string, data []byte) (Info, error) {
	format := feed.DetectFormat(name)
	if format == feed.FormatNone {
		return Info{}, errors.New(feed.ErrUnsupportedFormat).
			Component("probe").
			Category(errors.CategoryFormat).
			Context("operation", "probe_bytes").
			Context("name", name).
			Build()
	}

	info, err := parse(format, bytes.NewReader(data))
	if err != nil {
		return Info{}, err
	}
	info.Size = int64(len(data))
	return info, nil
}

func parse(format feed.Format, r io.ReadSeeker) (Info, error) {
	switch format {
	case feed.FormatWAV:
		return parseWAV(r)
	case feed.FormatMP3:
		return parseMP3(r)
	case feed.FormatFLAC:
		return parseFLAC(r)
	default:
		return Info{}, errors.New(feed.ErrUnsupportedFormat).
			Component("probe").
			Category(errors.CategoryFormat).
			Build()
	}
}

func parseWAV(r io.ReadSeeker) (Info, error) {
	decoder := wav.NewDecoder(r)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return Info{}, errors.Newf("not a valid WAV file").
			Component("probe").
			Category(errors.CategoryFormat).
			Build()
	}

	duration, err := decoder.Duration()
	if err != nil {
		// Parameters are still worth reporting when the data chunk is
		// truncated; only the duration is unknown.
		duration = 0
	}

	return Info{
		Format:     feed.FormatWAV,
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
		BitDepth:   int(decoder.BitDepth),
		Duration:   duration,
	}, nil
}

func parseFLAC(r io.ReadSeeker) (Info, error) {
	decoder, err := flac.NewDecoder(r)
	if err != nil {
		return Info{}, errors.New(err).
			Component("probe").
			Category(errors.CategoryFormat).
			Context("container", "flac").
			Build()
	}

	var duration time.Duration
	if decoder.SampleRate > 0 {
		duration = time.Duration(int64(decoder.TotalSamples) * int64(time.Second) / int64(decoder.SampleRate))
	}

	return Info{
		Format:     feed.FormatFLAC,
		SampleRate: decoder.SampleRate,
		Channels:   decoder.NChannels,
		BitDepth:   decoder.BitsPerSample,
		Duration:   duration,
	}, nil
}

func parseMP3(r io.ReadSeeker) (Info, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return Info{}, errors.New(err).
			Component("probe").
			Category(errors.CategoryFormat).
			Context("container", "mp3").
			Build()
	}

	rate := decoder.SampleRate()
	var duration time.Duration
	if length := decoder.Length(); length > 0 && rate > 0 {
		steps := length / mp3OutputBytesPerStep
		duration = time.Duration(steps * int64(time.Second) / int64(rate))
	}

	return Info{
		Format:     feed.FormatMP3,
		SampleRate: rate,
		Channels:   mp3OutputChannels,
		BitDepth:   mp3OutputBitDepth,
		Duration:   duration,
	}, nil
}
