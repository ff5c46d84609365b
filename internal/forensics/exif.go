package forensics

import (
	"bytes"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// editorSoftware is checked as a case-insensitive substring of the EXIF
// Software tag. A hit means the image passed through editing software.
var editorSoftware = []string{
	"photoshop",
	"gimp",
	"paint.net",
	"coreldraw",
	"affinity photo",
	"pixlr",
	"lightroom",
	"snapseed",
}

type tagWalker struct {
	tags map[string]string
}

func (w *tagWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if tag != nil {
		w.tags[string(name)] = strings.Trim(tag.String(), `"`)
	}
	return nil
}

// AnalyzeMetadata inspects embedded EXIF for editing fingerprints and
// timestamp mismatches. Metadata absence is evidence-neutral: any parse
// failure yields the zero MetadataResult, never an error.
func AnalyzeMetadata(data []byte) MetadataResult {
	result := MetadataResult{}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		// Screenshots routinely carry no EXIF at all
		return result
	}

	walker := &tagWalker{tags: make(map[string]string)}
	_ = x.Walk(walker)
	result.Tags = walker.tags

	if software, ok := walker.tags[string(exif.Software)]; ok {
		lower := strings.ToLower(software)
		for _, editor := range editorSoftware {
			if strings.Contains(lower, editor) {
				result.HasEditorMetadata = true
				result.SoftwareDetected = software
				break
			}
		}
	}

	result.ModifyDate = walker.tags[string(exif.DateTime)]
	result.CreateDate = walker.tags[string(exif.DateTimeOriginal)]
	if result.CreateDate == "" {
		result.CreateDate = walker.tags[string(exif.DateTimeDigitized)]
	}

	// Only a verifiable mismatch counts; a missing date on either side is
	// no signal
	if result.ModifyDate != "" && result.CreateDate != "" && result.ModifyDate != result.CreateDate {
		result.ModificationDetected = true
	}

	result.DeviceMake = walker.tags[string(exif.Make)]
	result.DeviceModel = walker.tags[string(exif.Model)]

	return result
}
