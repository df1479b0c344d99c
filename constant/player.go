package constant

// Embedded player defaults.
const (
	// PlayerBaseURL is the embed endpoint the video identifier is appended to.
	PlayerBaseURL = "https://player.vimeo.com/video/"

	// OEmbedURL describes a video given its page URL.
	OEmbedURL = "https://vimeo.com/api/oembed.json"

	// VideoPageURL is the public page of a video, passed to the oEmbed endpoint.
	VideoPageURL = "https://vimeo.com/"

	// MinVideoIDDigits is the shortest digit run accepted as a video identifier.
	MinVideoIDDigits = 6
)
