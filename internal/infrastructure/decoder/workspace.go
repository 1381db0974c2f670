package decoder

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/common"
	multidetector "github.com/makiuchi-d/gozxing/multi/qrcode/detector"
	qrdecoder "github.com/makiuchi-d/gozxing/qrcode/decoder"
	"github.com/reglet-dev/scannode/internal/domain/entities"
	"github.com/reglet-dev/scannode/internal/domain/values"
)

type workspaceState int

const (
	stateFresh workspaceState = iota
	stateBegun
	stateCommitted
	stateDestroyed
)

// workspace holds one frame's pixels and the symbols detected in them.
type workspace struct {
	owner      *Decoder
	logger     *slog.Logger
	pixels     []byte
	detections []*common.DetectorResult
	geometry   entities.Geometry
	maxVersion int
	state      workspaceState
}

var decodeHints = map[gozxing.DecodeHintType]interface{}{
	gozxing.DecodeHintType_TRY_HARDER: true,
}

// Begin returns the writable pixel view. A destroyed workspace returns an
// empty view with zero dimensions.
func (w *workspace) Begin() ([]byte, int, int) {
	if w.state == stateDestroyed {
		return nil, 0, 0
	}
	w.state = stateBegun
	w.detections = nil
	return w.pixels, w.geometry.Width, w.geometry.Height
}

// Commit binarizes the pixels and locates every QR symbol in them.
// Finding nothing is not an error.
func (w *workspace) Commit() error {
	switch w.state {
	case stateDestroyed:
		return ErrDestroyed
	case stateFresh:
		return ErrNotBegun
	}
	w.state = stateCommitted
	w.detections = nil

	img := &image.Gray{
		Pix:    w.pixels,
		Stride: w.geometry.Width,
		Rect:   image.Rect(0, 0, w.geometry.Width, w.geometry.Height),
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return fmt.Errorf("binarize frame: %w", err)
	}
	matrix, err := bmp.GetBlackMatrix()
	if err != nil {
		var notFound gozxing.NotFoundException
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("binarize frame: %w", err)
	}

	results, err := multidetector.NewMultiDetector(matrix).DetectMulti(decodeHints)
	if err != nil {
		var notFound gozxing.NotFoundException
		if errors.As(err, &notFound) {
			w.logger.Debug("no symbols located")
			return nil
		}
		return fmt.Errorf("locate symbols: %w", err)
	}

	w.detections = results
	return nil
}

// SymbolCount returns how many symbols the last Commit located.
func (w *workspace) SymbolCount() int {
	if w.state != stateCommitted {
		return 0
	}
	return len(w.detections)
}

// ExtractAndDecode decodes one located symbol. Failures come back as the
// symbol's status, never as a panic.
func (w *workspace) ExtractAndDecode(index int) entities.DecodedSymbol {
	if w.state == stateDestroyed {
		return entities.NewFailedSymbol(index, values.DecodeUnknown, ErrDestroyed.Error())
	}
	if w.state != stateCommitted || index < 0 || index >= len(w.detections) {
		return entities.NewFailedSymbol(index, values.DecodeUnknown,
			fmt.Sprintf("no symbol at index %d", index))
	}

	bits := w.detections[index].GetBits()
	if version := symbolVersion(bits); version > w.maxVersion {
		return entities.NewFailedSymbol(index, values.DecodeUnsupportedVersion,
			fmt.Sprintf("version %d exceeds %d", version, w.maxVersion))
	}

	result, err := qrdecoder.NewDecoder().Decode(bits, decodeHints)
	if err != nil {
		return entities.NewFailedSymbol(index, Classify(err), err.Error())
	}
	return entities.NewDecodedSymbol(index, result.GetText())
}

// Destroy frees the workspace and returns its bytes to the budget.
func (w *workspace) Destroy() error {
	if w.state == stateDestroyed {
		return ErrDestroyed
	}
	w.state = stateDestroyed
	w.detections = nil
	w.owner.free(len(w.pixels))
	w.pixels = nil
	return nil
}

// symbolVersion derives the QR version from the sampled grid size.
func symbolVersion(bits *gozxing.BitMatrix) int {
	if bits == nil {
		return 0
	}
	return (bits.GetHeight() - 17) / 4
}

// Classify maps a decoder failure to a decode status.
func Classify(err error) values.DecodeStatus {
	var (
		checksum gozxing.ChecksumException
		format   gozxing.FormatException
	)
	switch {
	case err == nil:
		return values.DecodeOK
	case errors.As(err, &checksum):
		return values.DecodeChecksum
	case errors.As(err, &format):
		if strings.Contains(strings.ToLower(err.Error()), "version") {
			return values.DecodeUnsupportedVersion
		}
		return values.DecodeMalformed
	default:
		return values.DecodeUnknown
	}
}
