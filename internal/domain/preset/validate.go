package preset

import (
	"errors"
	"fmt"
	"regexp"
)

var frameSizeRe = regexp.MustCompile(`^[1-9][0-9]{0,4}x[1-9][0-9]{0,4}$`)

// Validate checks enum membership and the frame size shape. Bitrate and
// key-frame interval are free-form: values that do not parse are skipped
// when rendering arguments.
func (p *EncodingPreset) Validate() error {
	// name: minLength 1, maxLength 100
	if len(p.Name) < 1 {
		return errors.New("name must be at least 1 character")
	}
	if len(p.Name) > 100 {
		return errors.New("name must be at most 100 characters")
	}

	if !oneOf(p.Video.Codec, videoCodecs) {
		return fmt.Errorf("invalid video.codec %q", p.Video.Codec)
	}
	if p.Video.FrameSize != "" && !frameSizeRe.MatchString(p.Video.FrameSize) {
		return fmt.Errorf("invalid video.frame_size %q (want WxH)", p.Video.FrameSize)
	}
	if !oneOf(p.Video.ScalingMode, scalingModes) {
		return fmt.Errorf("invalid video.scaling_mode %q", p.Video.ScalingMode)
	}
	if !oneOf(p.Video.Profile, profileLevels) {
		return fmt.Errorf("invalid video.profile %q", p.Video.Profile)
	}

	if !oneOf(p.Audio.Codec, audioCodecs) {
		return fmt.Errorf("invalid audio.codec %q", p.Audio.Codec)
	}
	if !oneOf(p.Audio.SampleRate, sampleRates) {
		return fmt.Errorf("invalid audio.sample_rate %q", p.Audio.SampleRate)
	}
	if !oneOf(p.Audio.Bitrate, audioBitrates) {
		return fmt.Errorf("invalid audio.bitrate %q", p.Audio.Bitrate)
	}
	if p.Audio.BitrateMode != BitratePerChannel && p.Audio.BitrateMode != BitrateAllChannels {
		return fmt.Errorf("invalid audio.bitrate_mode %q", p.Audio.BitrateMode)
	}
	if !oneOf(p.Audio.Channels, channelCounts) {
		return fmt.Errorf("invalid audio.channels %q", p.Audio.Channels)
	}
	if p.Audio.ChannelLayout != LayoutDefault && p.Audio.ChannelLayout != LayoutStereoLR {
		return fmt.Errorf("invalid audio.channel_layout %q", p.Audio.ChannelLayout)
	}
	return nil
}
