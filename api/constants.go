package api

const (
	// ServiceName is reported by the health endpoint
	ServiceName = "pdfpro"

	// MultipartMemory is the part of a multipart body kept in memory while parsing;
	// larger files spill to disk until the request ends
	MultipartMemory = 32 << 20

	// Form fields carrying uploads
	fieldFile  = "file"
	fieldFiles = "files"
)

// allowedUploadTypes are the content-sniffed MIME types accepted by any route.
var allowedUploadTypes = []string{
	"application/pdf",
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
}
