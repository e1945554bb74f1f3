package ffmpegcmd

import "github.com/edirooss/avcapture-server/internal/domain/preset"

// videoRule is how one video codec renders onto the command line.
type videoRule struct {
	encoder string
	extra   []string // fixed tokens emitted right after -c:v
	// profiles lists the profile names the encoder accepts; nil disables -profile:v/-level.
	profiles map[string]bool
}

var videoRules = map[preset.VideoCodec]videoRule{
	preset.VideoH264:       {encoder: "libx264", profiles: map[string]bool{"baseline": true, "main": true}},
	preset.VideoHEVC:       {encoder: "libx265", extra: []string{"-tag:v", "hvc1"}, profiles: map[string]bool{"main": true}},
	preset.VideoProRes422:  {encoder: "prores_ks", extra: []string{"-profile:v", "2"}},
	preset.VideoProRes4444: {encoder: "prores_ks", extra: []string{"-profile:v", "4", "-pix_fmt", "yuva444p10le"}},
	preset.VideoCopy:       {encoder: "copy"},
}

// audioRule is how one audio codec renders onto the command line.
type audioRule struct {
	encoder string
	extra   []string // fixed tokens emitted right after -c:a
	// vbrAllChannels emits "-vbr 4" when the bitrate mode is all_channels.
	vbrAllChannels bool
	// experimental emits "-strict experimental".
	experimental bool
}

var audioRules = map[preset.AudioCodec]audioRule{
	preset.AudioIMA4ADPCM: {encoder: "adpcm_ima_qt"},
	preset.AudioAAC:       {encoder: "aac", experimental: true},
	preset.AudioULaw:      {encoder: "pcm_mulaw"},
	preset.AudioALaw:      {encoder: "pcm_alaw"},
	preset.AudioALAC:      {encoder: "alac"},
	preset.AudioHEAAC:     {encoder: "libfdk_aac", vbrAllChannels: true},
	preset.AudioAACLD:     {encoder: "libfdk_aac", extra: []string{"-profile:a", "aac_ld"}},
	preset.AudioAACELD:    {encoder: "libfdk_aac", extra: []string{"-profile:a", "aac_eld"}},
	preset.AudioAACELDSBR: {encoder: "libfdk_aac", extra: []string{"-profile:a", "aac_eld", "-eld_sbr", "1"}},
	preset.AudioHEAACv2:   {encoder: "libfdk_aac", extra: []string{"-profile:a", "aac_he_v2"}},
	preset.AudioILBC:      {encoder: "libilbc"},
}

// pcmEncoder picks the raw PCM encoder from the float/endianness flags.
func pcmEncoder(a preset.AudioSettings) string {
	isFloat := a.IsFloat != nil && *a.IsFloat
	bigEndian := a.IsBigEndian != nil && *a.IsBigEndian
	switch {
	case isFloat && bigEndian:
		return "pcm_f32be"
	case isFloat:
		return "pcm_f32le"
	case bigEndian:
		return "pcm_s16be"
	default:
		return "pcm_s16le"
	}
}

func audioRuleFor(a preset.AudioSettings) (audioRule, bool) {
	if a.Codec == preset.AudioLinearPCM {
		return audioRule{encoder: pcmEncoder(a)}, true
	}
	r, ok := audioRules[a.Codec]
	return r, ok
}

// downmixFilters is the fixed stereo downmix, keyed by input channel count.
var downmixFilters = map[preset.ChannelCount]string{
	"2": "pan=stereo|c0=c0|c1=c1",
	"4": "pan=stereo|c0=0.5*c0+0.5*c2|c1=0.5*c1+0.5*c3",
	"6": "pan=stereo|c0=0.5*c0+0.5*c4+0.35*c2|c1=0.5*c1+0.5*c5+0.35*c2",
	"8": "pan=stereo|c0=0.3*c0+0.3*c4+0.3*c6+0.21*c2|c1=0.3*c1+0.3*c5+0.3*c7+0.21*c2",
}

// Downmix returns the pan filter for a, if a requests a stereo downmix of a
// supported channel count.
func Downmix(a preset.AudioSettings) (string, bool) {
	if a.ChannelLayout != preset.LayoutStereoLR {
		return "", false
	}
	f, ok := downmixFilters[a.Channels]
	return f, ok
}
