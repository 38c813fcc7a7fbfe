package dto

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SupportedExtensions lists the upload extensions accepted by the resolver.
var SupportedExtensions = []string{".png", ".jpg", ".jpeg"}

// URLRequest is the form posted by the URL tab.
type URLRequest struct {
	URL string `form:"url"`
}

// Validate trims the URL and checks that one was supplied
func (r *URLRequest) Validate() error {
	r.URL = strings.TrimSpace(r.URL)
	if r.URL == "" {
		return fmt.Errorf("url is required")
	}
	return nil
}

// IsSupportedExtension reports whether filename ends in png, jpg or jpeg.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, valid := range SupportedExtensions {
		if ext == valid {
			return true
		}
	}
	return false
}
