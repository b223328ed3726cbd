package v4l

type ProbeResult struct {
	Device   string      `json:"device"`
	Current  FormatSize  `json:"current"`
	RGB24    bool        `json:"rgb24"`
	Sizes    []FrameSize `json:"sizes"`
	Controls []Control   `json:"controls,omitempty"`
}

type FormatSize struct {
	Format       string `json:"format"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	BytesPerLine int    `json:"bytesPerLine"`
}

type FrameSize struct {
	Format    string `json:"format"`
	MinWidth  int    `json:"minWidth"`
	MaxWidth  int    `json:"maxWidth"`
	MinHeight int    `json:"minHeight"`
	MaxHeight int    `json:"maxHeight"`
}

// Control ids are the values accepted in the camera.controls config map.
type Control struct {
	ID      uint32 `json:"id"`
	Name    string `json:"name"`
	Min     int32  `json:"min"`
	Max     int32  `json:"max"`
	Step    int32  `json:"step"`
	Default int32  `json:"default"`
	Value   int32  `json:"value"`
}
