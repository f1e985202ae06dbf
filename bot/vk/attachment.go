package vk

// Attachment of the incoming message.
// Only the member named by Type is set.
type Attachment struct {
	Type         string        `json:"type"`
	Photo        *Photo        `json:"photo,omitempty"`
	Video        *Video        `json:"video,omitempty"`
	Audio        *Audio        `json:"audio,omitempty"`
	AudioMessage *VoiceMessage `json:"audio_message,omitempty"`
	Doc          *Document     `json:"doc,omitempty"`
	Sticker      *Sticker      `json:"sticker,omitempty"`
}

type Photo struct {
	ID      int64 `json:"id,omitempty"`
	AlbumID int64 `json:"album_id,omitempty"`
	// ID of photo owner
	OwnerID int64  `json:"owner_id,omitempty"`
	Caption string `json:"text,omitempty"`
	// Date added (!UNIX)
	Date int64 `json:"date,omitempty"`
	// Array of photo copies with different sizes
	Sizes []ImageProps `json:"sizes,omitempty"`
}

// Largest copy within maxPixels, or the smallest one.
func (p *Photo) Largest(maxPixels int64) *ImageProps {
	return largest(p.Sizes, maxPixels)
}

type ImageProps struct {
	Type   string `json:"type,omitempty"`
	URL    string `json:"url,omitempty"`
	Width  int64  `json:"width,omitempty"`
	Height int64  `json:"height,omitempty"`
}

// largest expects sizes ordered from smallest to biggest.
func largest(sizes []ImageProps, maxPixels int64) *ImageProps {
	if len(sizes) == 0 {
		return nil
	}
	i := len(sizes) - 1
	for ; i >= 0 && sizes[i].Width*sizes[i].Height > maxPixels; i-- {
		// omit files that are too large
	}
	if i < 0 {
		i = 0
	}
	return &sizes[i]
}

type Video struct {
	ID int64 `json:"id,omitempty"`
	// ID of video owner
	OwnerID     int64  `json:"owner_id,omitempty"`
	Description string `json:"description,omitempty"`
	Title       string `json:"title,omitempty"`
	// IN SECS!
	Duration int64 `json:"duration,omitempty"`
	// Date added (!UNIX)
	Date     int64  `json:"date,omitempty"`
	URL      string `json:"player,omitempty"`
	Platform string `json:"platform,omitempty"`
}

type Audio struct {
	ID int64 `json:"id,omitempty"`
	// ID of audio owner
	OwnerID int64  `json:"owner_id,omitempty"`
	Title   string `json:"title,omitempty"`
	// IN SECS!
	Duration int64 `json:"duration,omitempty"`
	// Date added (!UNIX)
	Date int64  `json:"date,omitempty"`
	URL  string `json:"url,omitempty"`
}

type VoiceMessage struct {
	ID int64 `json:"id,omitempty"`
	// ID of audio owner
	OwnerID int64 `json:"owner_id,omitempty"`
	// IN SECS!
	Duration int64  `json:"duration,omitempty"`
	LinkMP3  string `json:"link_mp3,omitempty"`
	LinkOGG  string `json:"link_ogg,omitempty"`
}

type Document struct {
	ID int64 `json:"id,omitempty"`
	// ID of document owner
	OwnerID int64  `json:"owner_id,omitempty"`
	Title   string `json:"title,omitempty"`
	// IN BYTES!
	Size int64 `json:"size,omitempty"`

	//1 - text
	//2 - archive
	//3 - gif
	//4 - image
	//5 - audio
	//6 - video
	//7 - e-book
	//8 - unknown
	Type      int    `json:"type,omitempty"`
	Extension string `json:"ext,omitempty"`
	// Date added (!UNIX)
	Date int64  `json:"date,omitempty"`
	URL  string `json:"url,omitempty"`
}

type Sticker struct {
	Images       []ImageProps `json:"images,omitempty"`
	AnimationURL string       `json:"animation_url,omitempty"`
	IsAllowed    bool         `json:"is_allowed,omitempty"`
}

// Largest image within maxPixels, or the smallest one.
func (s *Sticker) Largest(maxPixels int64) *ImageProps {
	return largest(s.Images, maxPixels)
}
