package pdf

const (
	// DefaultRotationAngle is applied when a rotate request carries no angle
	DefaultRotationAngle = 90

	// DefaultWatermarkText is drawn when a watermark request carries no text
	DefaultWatermarkText = "WATERMARK"

	// DefaultWatermarkOpacity is the watermark fill opacity (0 transparent, 1 opaque)
	DefaultWatermarkOpacity = 0.3

	// DefaultWatermarkRotation is the watermark rotation in degrees for center placement
	DefaultWatermarkRotation = 45

	// DefaultWatermarkFontSize is the watermark font size in points
	DefaultWatermarkFontSize = 50

	// WatermarkFillColor is the light gray used for watermark text
	WatermarkFillColor = "#BFBFBF"

	// DefaultDPI is the rasterization resolution when none is requested
	DefaultDPI = 150

	// MinDPI and MaxDPI bound accepted rasterization resolutions
	MinDPI = 36
	MaxDPI = 600

	// MaxClientErrorLength truncates diagnostic details returned to clients
	MaxClientErrorLength = 200
)

// Page sizes accepted by image import.
const (
	PageSizeAuto   = "auto"
	PageSizeA4     = "A4"
	PageSizeLetter = "Letter"
)

// Watermark positions.
const (
	PositionCenter   = "center"
	PositionDiagonal = "diagonal"
)

// Split modes.
const (
	SplitAll   = "all"
	SplitRange = "range"
)

// Raster output formats.
const (
	FormatPNG = "png"
	FormatJPG = "jpg"
)
