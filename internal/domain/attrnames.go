package domain

// Well-known attribute names understood by event-sound backends.
// The namespaced dotted keys follow the freedesktop sound event convention,
// so attribute sets built here can be handed to any conforming backend
// without translation.
const (
	// AttrMediaName is a name describing the media being played.
	AttrMediaName = "media.name"

	// AttrMediaTitle is a proper title for the media.
	AttrMediaTitle = "media.title"

	// AttrMediaArtist is the artist of the media.
	AttrMediaArtist = "media.artist"

	// AttrMediaLanguage is the language of the media (RFC 3066 tag).
	AttrMediaLanguage = "media.language"

	// AttrMediaFilename is the file path the media was or shall be read from.
	AttrMediaFilename = "media.filename"

	// AttrMediaIconName is an XDG icon name for the media.
	AttrMediaIconName = "media.icon_name"

	// AttrMediaRole is the media role, e.g. "event" or "music".
	AttrMediaRole = "media.role"

	// AttrEventID is the XDG sound theme event identifier,
	// e.g. "message-new-email" or "bell-terminal".
	AttrEventID = "event.id"

	// AttrEventDescription is a human-readable description of the event.
	AttrEventDescription = "event.description"

	// AttrEventMouseX is the X position of the mouse for input events, in px.
	AttrEventMouseX = "event.mouse.x"

	// AttrEventMouseY is the Y position of the mouse for input events, in px.
	AttrEventMouseY = "event.mouse.y"

	// AttrEventMouseHPos is the horizontal mouse position as a factor 0..1.
	AttrEventMouseHPos = "event.mouse.hpos"

	// AttrEventMouseVPos is the vertical mouse position as a factor 0..1.
	AttrEventMouseVPos = "event.mouse.vpos"

	// AttrEventMouseButton is the number of the mouse button for input events.
	AttrEventMouseButton = "event.mouse.button"

	// AttrWindowName is the name of the window the event belongs to.
	AttrWindowName = "window.name"

	// AttrWindowID is an identifier for the window the event belongs to.
	AttrWindowID = "window.id"

	// AttrWindowIconName is an XDG icon name for the window.
	AttrWindowIconName = "window.icon_name"

	// AttrWindowX is the X position of the window on screen, in px.
	AttrWindowX = "window.x"

	// AttrWindowY is the Y position of the window on screen, in px.
	AttrWindowY = "window.y"

	// AttrWindowWidth is the width of the window on screen, in px.
	AttrWindowWidth = "window.width"

	// AttrWindowHeight is the height of the window on screen, in px.
	AttrWindowHeight = "window.height"

	// AttrWindowHPos is the horizontal window position as a factor 0..1.
	AttrWindowHPos = "window.hpos"

	// AttrWindowVPos is the vertical window position as a factor 0..1.
	AttrWindowVPos = "window.vpos"

	// AttrWindowDesktop is the desktop the window is visible on.
	AttrWindowDesktop = "window.desktop"

	// AttrApplicationName is the name of the triggering application.
	AttrApplicationName = "application.name"

	// AttrApplicationID is an identifier for the triggering application,
	// e.g. "org.chimekit.chimed".
	AttrApplicationID = "application.id"

	// AttrApplicationVersion is the version of the triggering application.
	AttrApplicationVersion = "application.version"

	// AttrApplicationIconName is an XDG icon name for the application.
	AttrApplicationIconName = "application.icon_name"

	// AttrApplicationLanguage is the locale of the application.
	AttrApplicationLanguage = "application.language"

	// AttrApplicationProcessID is the PID of the triggering process.
	AttrApplicationProcessID = "application.process.id"

	// AttrApplicationProcessBinary is the binary path of the process.
	AttrApplicationProcessBinary = "application.process.binary"

	// AttrApplicationProcessUser is the user owning the process.
	AttrApplicationProcessUser = "application.process.user"

	// AttrApplicationProcessHost is the host the process runs on.
	AttrApplicationProcessHost = "application.process.host"

	// AttrCacheControl controls backend caching for the sound:
	// "permanent", "volatile" or "never".
	AttrCacheControl = "canberra.cache-control"

	// AttrVolume is a volume adjustment in decibels, as a decimal string.
	AttrVolume = "canberra.volume"

	// AttrThemeName overrides the XDG sound theme to use.
	AttrThemeName = "canberra.xdg-theme.name"

	// AttrThemeOutputProfile overrides the sound theme output profile.
	AttrThemeOutputProfile = "canberra.xdg-theme.output-profile"

	// AttrEnable is "1" or "0" and force-enables or -disables playback
	// for this sound regardless of backend policy.
	AttrEnable = "canberra.enable"

	// AttrForceChannel forces playback on a particular channel position.
	AttrForceChannel = "canberra.force_channel"
)
