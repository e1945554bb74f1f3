package preset

type VideoCodec string

const (
	VideoH264       VideoCodec = "h264"
	VideoHEVC       VideoCodec = "hevc"
	VideoProRes422  VideoCodec = "prores422"
	VideoProRes4444 VideoCodec = "prores4444"
	VideoCopy       VideoCodec = "copy" // no compression
)

var videoCodecs = []VideoCodec{VideoH264, VideoHEVC, VideoProRes422, VideoProRes4444, VideoCopy}

type ScalingMode string

const (
	ScaleNone  ScalingMode = ""
	ScaleForce ScalingMode = "force" // scale to size, lose aspect ratio
	ScalePad   ScalingMode = "pad"   // keep aspect ratio, add black bars
	ScaleCrop  ScalingMode = "crop"  // keep aspect ratio, crop picture
)

var scalingModes = []ScalingMode{ScaleNone, ScaleForce, ScalePad, ScaleCrop}

// ProfileLevel pairs an encoder profile with a level.
type ProfileLevel string

const (
	ProfileNone       ProfileLevel = ""
	ProfileBaseline30 ProfileLevel = "baseline_3.0"
	ProfileBaseline31 ProfileLevel = "baseline_3.1"
	ProfileBaseline41 ProfileLevel = "baseline_4.1"
	ProfileMain30     ProfileLevel = "main_3.0"
	ProfileMain31     ProfileLevel = "main_3.1"
	ProfileMain32     ProfileLevel = "main_3.2"
	ProfileMain41     ProfileLevel = "main_4.1"
)

var profileLevels = []ProfileLevel{
	ProfileNone, ProfileBaseline30, ProfileBaseline31, ProfileBaseline41,
	ProfileMain30, ProfileMain31, ProfileMain32, ProfileMain41,
}

// Profile is the encoder profile name ("baseline", "main").
func (p ProfileLevel) Profile() string {
	switch p {
	case ProfileBaseline30, ProfileBaseline31, ProfileBaseline41:
		return "baseline"
	case ProfileMain30, ProfileMain31, ProfileMain32, ProfileMain41:
		return "main"
	}
	return ""
}

// Level is the encoder level ("3.0", "4.1", ...).
func (p ProfileLevel) Level() string {
	switch p {
	case ProfileBaseline30, ProfileMain30:
		return "3.0"
	case ProfileBaseline31, ProfileMain31:
		return "3.1"
	case ProfileMain32:
		return "3.2"
	case ProfileBaseline41, ProfileMain41:
		return "4.1"
	}
	return ""
}

type AudioCodec string

const (
	AudioLinearPCM AudioCodec = "pcm"
	AudioIMA4ADPCM AudioCodec = "adpcm_ima_qt"
	AudioAAC       AudioCodec = "aac"
	AudioULaw      AudioCodec = "pcm_mulaw"
	AudioALaw      AudioCodec = "pcm_alaw"
	AudioALAC      AudioCodec = "alac"
	AudioHEAAC     AudioCodec = "libfdk_aac"
	AudioAACLD     AudioCodec = "aac_ld"
	AudioAACELD    AudioCodec = "aac_eld"
	AudioAACELDSBR AudioCodec = "aac_eld_sbr"
	AudioHEAACv2   AudioCodec = "he_aac_v2"
	AudioILBC      AudioCodec = "ilbc"
)

var audioCodecs = []AudioCodec{
	AudioLinearPCM, AudioIMA4ADPCM, AudioAAC, AudioULaw, AudioALaw, AudioALAC,
	AudioHEAAC, AudioAACLD, AudioAACELD, AudioAACELDSBR, AudioHEAACv2, AudioILBC,
}

type SampleRate string

var sampleRates = []SampleRate{"16000", "22050", "24000", "32000", "44100", "48000", "88200", "96000"}

type AudioBitrate string

var audioBitrates = []AudioBitrate{
	"10k", "12k", "16k", "20k", "24k", "28k", "32k", "40k", "48k", "56k", "64k", "80k",
	"96k", "112k", "128k", "160k", "192k", "224k", "256k", "320k", "448k", "640k", "1120k",
}

type BitrateMode string

const (
	BitratePerChannel  BitrateMode = "per_channel"
	BitrateAllChannels BitrateMode = "all_channels"
)

type ChannelCount string

var channelCounts = []ChannelCount{"1", "2", "4", "6", "8"}

type ChannelLayout string

const (
	LayoutDefault  ChannelLayout = ""
	LayoutStereoLR ChannelLayout = "stereo"
)

func oneOf[T comparable](v T, set []T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
