package ffmpegcmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edirooss/avcapture-server/internal/domain/preset"
)

func hd720() *preset.EncodingPreset { return preset.Builtins()[0] }

func TestBuildArgumentsHD720(t *testing.T) {
	assert.Equal(t, []string{
		"-c:v", "libx264", "-b:v", "5000k", "-g", "25",
		"-c:a", "libfdk_aac", "-ar", "48000", "-b:a", "128k", "-ac", "2",
	}, BuildArguments(hd720(), true, true))
}

func TestBuildArgumentsIsDeterministic(t *testing.T) {
	p := hd720()
	p.Video.ScalingMode = preset.ScalePad
	p.Video.Profile = preset.ProfileMain41
	p.Audio.ChannelLayout = preset.LayoutStereoLR
	p.Audio.Channels = "6"
	assert.Equal(t, BuildArguments(p, true, true), BuildArguments(p, true, true))
}

func TestBuildArgumentsVideoOnlyAudioOnly(t *testing.T) {
	assert.NotContains(t, BuildArguments(hd720(), true, false), "-c:a")
	assert.NotContains(t, BuildArguments(hd720(), false, true), "-c:v")
	assert.Empty(t, BuildArguments(hd720(), false, false))
}

func TestMalformedNumbersDropThePair(t *testing.T) {
	for _, bad := range []string{"", "abc", "0", "-5", "12.5", "5000k"} {
		p := hd720()
		p.Video.Bitrate = bad
		p.Video.KeyFrameInterval = bad
		args := BuildArguments(p, true, false)
		assert.Equal(t, []string{"-c:v", "libx264"}, args, "input %q", bad)
	}
}

func TestDownmixTable(t *testing.T) {
	want := map[preset.ChannelCount]string{
		"2": "pan=stereo|c0=c0|c1=c1",
		"4": "pan=stereo|c0=0.5*c0+0.5*c2|c1=0.5*c1+0.5*c3",
		"6": "pan=stereo|c0=0.5*c0+0.5*c4+0.35*c2|c1=0.5*c1+0.5*c5+0.35*c2",
		"8": "pan=stereo|c0=0.3*c0+0.3*c4+0.3*c6+0.21*c2|c1=0.3*c1+0.3*c5+0.3*c7+0.21*c2",
	}
	for ch, filter := range want {
		p := hd720()
		p.Audio.Channels = ch
		p.Audio.ChannelLayout = preset.LayoutStereoLR
		args := BuildArguments(p, false, true)
		require.GreaterOrEqual(t, len(args), 2)
		assert.Equal(t, []string{"-af", filter}, args[len(args)-2:], "channels %s", ch)
	}

	for _, ch := range []preset.ChannelCount{"1", "3", "5"} {
		p := hd720()
		p.Audio.Channels = ch
		p.Audio.ChannelLayout = preset.LayoutStereoLR
		assert.NotContains(t, BuildArguments(p, false, true), "-af", "channels %s", ch)
	}

	p := hd720()
	p.Audio.Channels = "6"
	assert.NotContains(t, BuildArguments(p, false, true), "-af", "default layout never downmixes")
}

func TestPCMEncoderByFlags(t *testing.T) {
	yes, no := true, false
	cases := []struct {
		float, big *bool
		want       string
	}{
		{nil, nil, "pcm_s16le"},
		{&no, &yes, "pcm_s16be"},
		{&yes, &no, "pcm_f32le"},
		{&yes, &yes, "pcm_f32be"},
	}
	for _, c := range cases {
		p := hd720()
		p.Audio.Codec = preset.AudioLinearPCM
		p.Audio.IsFloat, p.Audio.IsBigEndian = c.float, c.big
		assert.Equal(t, []string{"-c:a", c.want}, BuildArguments(p, false, true)[:2])
	}
}

func TestAACTokens(t *testing.T) {
	p := hd720()
	p.Audio.BitrateMode = preset.BitrateAllChannels
	args := BuildArguments(p, false, true)
	assert.Equal(t, []string{"-c:a", "libfdk_aac", "-ar", "48000", "-b:a", "128k", "-vbr", "4", "-ac", "2"}, args)

	p.Audio.BitrateMode = preset.BitratePerChannel
	assert.NotContains(t, BuildArguments(p, false, true), "-vbr")

	p.Audio.Codec = preset.AudioAAC
	p.Audio.BitrateMode = preset.BitrateAllChannels
	args = BuildArguments(p, false, true)
	assert.NotContains(t, args, "-vbr")
	assert.Equal(t, []string{"-c:a", "aac", "-ar", "48000", "-b:a", "128k", "-strict", "experimental", "-ac", "2"}, args)
}

func TestProfileOnlyForProfileCapableCodecs(t *testing.T) {
	p := hd720()
	p.Video.Profile = preset.ProfileBaseline31
	assert.Subset(t, BuildArguments(p, true, false), []string{"-profile:v", "baseline", "-level", "3.1"})

	p.Video.Codec = preset.VideoProRes422
	args := BuildArguments(p, true, false)
	assert.NotContains(t, args, "-level")

	p.Video.Codec = preset.VideoCopy
	assert.NotContains(t, BuildArguments(p, true, false), "-profile:v")

	p.Video.Codec = preset.VideoHEVC
	p.Video.Profile = preset.ProfileMain30
	assert.Subset(t, BuildArguments(p, true, false), []string{"-profile:v", "main", "-level", "3.0"})
}

func TestScalingFilters(t *testing.T) {
	cases := map[preset.ScalingMode]string{
		preset.ScaleForce: "scale=1280:720",
		preset.ScalePad:   "scale=1280:720:force_original_aspect_ratio=decrease,pad=1280:720:(ow-iw)/2:(oh-ih)/2",
		preset.ScaleCrop:  "scale=1280:720:force_original_aspect_ratio=increase,crop=1280:720",
	}
	for mode, want := range cases {
		p := hd720()
		p.Video.ScalingMode = mode
		assert.Equal(t, []string{"-c:v", "libx264", "-vf", want}, BuildArguments(p, true, false)[:4])
	}

	p := hd720()
	p.Video.FrameSize = ""
	p.Video.ScalingMode = preset.ScaleForce
	assert.Contains(t, BuildArguments(p, true, false), "scale=iw:ih")
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `'ffmpeg' '-i' 'it'\''s' ''`, Quote("ffmpeg", []string{"-i", "it's", ""}))
}
