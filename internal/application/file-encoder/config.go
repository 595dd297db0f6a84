// internal/application/file-encoder/config.go
package fileencoder

// Config controls where oversize files are sent for compression.
type Config struct {
	PDFCompressorURL   string
	ImageCompressorURL string
}

func LoadConfig() *Config {
	return &Config{
		PDFCompressorURL:   "https://www.ilovepdf.com/compress_pdf",
		ImageCompressorURL: "https://www.iloveimg.com/compress-image",
	}
}
