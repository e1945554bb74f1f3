package feed

// Transport is how an IP camera delivers its stream.
type Transport string

const (
	TransportRTP       Transport = "rtp"        // RTP over TCP
	TransportMPEGTSRTP Transport = "mpegts_rtp" // MPEG-TS over RTP
	TransportMPEGTSUDP Transport = "mpegts_udp" // MPEG-TS over UDP
)

// RTSPTransport is the -rtsp_transport value for t; it is only emitted for rtsp:// URLs.
func (t Transport) RTSPTransport() string {
	switch t {
	case TransportRTP:
		return "tcp"
	case TransportMPEGTSRTP, TransportMPEGTSUDP:
		return "udp"
	}
	return ""
}

// IPCameraFeed is a persisted IP camera connection definition.
type IPCameraFeed struct {
	ID           string    `json:"id"`            // immutable
	Name         string    `json:"name"`          //
	URL          string    `json:"url"`           // empty when SDPFile is used
	Username     string    `json:"username"`      // optional
	Password     string    `json:"password"`      // optional
	Transport    Transport `json:"transport"`     //
	SDPFile      string    `json:"sdp_file"`      // optional; takes precedence over URL
	Deinterlace  bool      `json:"deinterlace"`   //
	DenoiseAudio bool      `json:"denoise_audio"` // adds -af afftdn on record
}

// HasInput reports whether the feed can be opened at all.
func (f *IPCameraFeed) HasInput() bool { return f.SDPFile != "" || f.URL != "" }

// Patch is a partial feed update. ID is never patchable.
type Patch struct {
	Name         *string    `json:"name"`
	URL          *string    `json:"url"`
	Username     *string    `json:"username"`
	Password     *string    `json:"password"`
	Transport    *Transport `json:"transport"`
	SDPFile      *string    `json:"sdp_file"`
	Deinterlace  *bool      `json:"deinterlace"`
	DenoiseAudio *bool      `json:"denoise_audio"`
}

// Apply merges the patch into f in place.
func (p *Patch) Apply(f *IPCameraFeed) {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.URL != nil {
		f.URL = *p.URL
	}
	if p.Username != nil {
		f.Username = *p.Username
	}
	if p.Password != nil {
		f.Password = *p.Password
	}
	if p.Transport != nil {
		f.Transport = *p.Transport
	}
	if p.SDPFile != nil {
		f.SDPFile = *p.SDPFile
	}
	if p.Deinterlace != nil {
		f.Deinterlace = *p.Deinterlace
	}
	if p.DenoiseAudio != nil {
		f.DenoiseAudio = *p.DenoiseAudio
	}
}

// View is the API representation; the password is never echoed back.
type View struct {
	IPCameraFeed
	Password    *string `json:"password,omitempty"`
	HasPassword bool    `json:"has_password"`
}

func ToView(f *IPCameraFeed) View {
	return View{IPCameraFeed: *f, HasPassword: f.Password != ""}
}
