package ytextract

// ChatParams is the exact JSON body the innertube live-chat
// continuation endpoint (get_live_chat) expects, field-for-field and
// in the field order browsers actually send it, ad-signal param list
// included. Deviating from this shape (missing fields, wrong
// ordering within adSignalsInfo.params) has been observed to cause
// YouTube to silently reject the request, so every field here is
// load-bearing even where its value is a constant.
type ChatParams struct {
	Context        chatContext    `json:"context"`
	Continuation   string         `json:"continuation"`
	WebClientInfo  webClientInfo  `json:"webClientInfo"`
}

type chatContext struct {
	Client        chatClient    `json:"client"`
	User          chatUser      `json:"user"`
	Request       chatRequest   `json:"request"`
	AdSignalsInfo adSignalsInfo `json:"adSignalsInfo"`
}

type chatClient struct {
	HL                  string          `json:"hl"`
	GL                  string          `json:"gl"`
	RemoteHost          string          `json:"remoteHost"`
	DeviceMake          string          `json:"deviceMake"`
	DeviceModel         string          `json:"deviceModel"`
	VisitorData         string          `json:"visitorData"`
	UserAgent           string          `json:"userAgent"`
	ClientName          string          `json:"clientName"`
	ClientVersion       string          `json:"clientVersion"`
	OSName              string          `json:"osName"`
	OSVersion           string          `json:"osVersion"`
	OriginalURL         string          `json:"originalUrl"`
	ScreenPixelDensity  uint8           `json:"screenPixelDensity"`
	Platform            string          `json:"platform"`
	ClientFormFactor    string          `json:"clientFormFactor"`
	ScreenDensityFloat  float32         `json:"screenDensityFloat"`
	UserInterfaceTheme  string          `json:"userInterfaceTheme"`
	TimeZone            string          `json:"timeZone"`
	BrowserName         string          `json:"browserName"`
	BrowserVersion      string          `json:"browserVersion"`
	ScreenWidthPoints   uint16          `json:"screenWidthPoints"`
	ScreenHeightPoints  uint16          `json:"screenHeightPoints"`
	UTCOffsetMinutes    int32           `json:"utcOffsetMinutes"`
	MainAppWebInfo      mainWebAppInfo  `json:"mainAppWebInfo"`
}

type mainWebAppInfo struct {
	GraftURL                  string `json:"graftUrl"`
	WebDisplayMode            string `json:"webDisplayMode"`
	IsWebNativeShareAvailable bool   `json:"isWebNativeShareAvailable"`
}

type chatUser struct {
	LockedSafetyMode bool `json:"lockedSafetyMode"`
}

type chatRequest struct {
	UseSSL                   bool     `json:"useSsl"`
	InternalExperimentFlags  []string `json:"internalExperimentFlags"`
	ConsistencyTokenJars     []string `json:"consistencyTokenJars"`
}

type adParam struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type adSignalsInfo struct {
	Params []adParam `json:"params"`
}

type webClientInfo struct {
	IsDocumentHidden bool `json:"isDocumentHidden"`
}

// ChatParamsInput is every value needed to build a ChatParams body
// for one poll request.
type ChatParamsInput struct {
	GL             string
	RemoteHost     string
	VisitorData    string
	UserAgent      string
	ClientVersion  string
	VideoID        string
	TimeZone       string
	BrowserName    string
	BrowserVersion string
	TimestampUnix  int64
	UTCOffsetMin   int32
	Continuation   string
}

// NewChatParams builds a ChatParams body from in, filling in every
// constant the browser itself would send.
func NewChatParams(in ChatParamsInput) ChatParams {
	watchURL := "https://www.youtube.com/live_chat?is_popout=1&v=" + in.VideoID

	client := chatClient{
		HL:                 "en",
		GL:                 in.GL,
		RemoteHost:         in.RemoteHost,
		VisitorData:        in.VisitorData,
		UserAgent:          in.UserAgent,
		ClientName:         "WEB",
		ClientVersion:      in.ClientVersion,
		OSName:             "Windows",
		OSVersion:          "10.0",
		OriginalURL:        watchURL,
		ScreenPixelDensity: 1,
		Platform:           "DESKTOP",
		ClientFormFactor:   "UNKNOWN_FORM_FACTOR",
		ScreenDensityFloat: 1.25,
		UserInterfaceTheme: "USER_INTERFACE_THEME_DARK",
		TimeZone:           in.TimeZone,
		BrowserName:        in.BrowserName,
		BrowserVersion:     in.BrowserVersion,
		ScreenWidthPoints:  1536,
		ScreenHeightPoints: 464,
		UTCOffsetMinutes:   in.UTCOffsetMin,
		MainAppWebInfo: mainWebAppInfo{
			GraftURL:                  watchURL,
			WebDisplayMode:            "WEB_DISPLAY_MODE_BROWSER",
			IsWebNativeShareAvailable: false,
		},
	}

	return ChatParams{
		Context: chatContext{
			Client:  client,
			User:    chatUser{LockedSafetyMode: false},
			Request: chatRequest{UseSSL: true, InternalExperimentFlags: []string{}, ConsistencyTokenJars: []string{}},
			AdSignalsInfo: adSignalsInfo{
				Params: adSignalParams(in.TimestampUnix, in.UTCOffsetMin),
			},
		},
		Continuation:  in.Continuation,
		WebClientInfo: webClientInfo{IsDocumentHidden: false},
	}
}

// adSignalParams builds the fixed 20-entry ad-signal parameter list
// in the exact order a real browser's ad-signals collector sends it.
func adSignalParams(timestampUnix int64, utcOffsetMin int32) []adParam {
	return []adParam{
		{"dt", itoa(timestampUnix)},
		{"flash", "0"},
		{"frm", "0"},
		{"u_tz", itoa32(utcOffsetMin)},
		{"u_his", "3"},
		{"u_java", "false"},
		{"u_h", "864"},
		{"u_w", "1536"},
		{"u_ah", "864"},
		{"u_aw", "1536"},
		{"u_cd", "24"},
		{"u_nplug", "0"},
		{"u_nmime", "0"},
		{"bc", "31"},
		{"bih", "464"},
		{"biw", "1536"},
		{"brdim", "1529,857,1529,857,1536,0,1536,864,1536,464"},
		{"vis", "1"},
		{"wgl", "true"},
		{"ca_type", "image"},
	}
}
