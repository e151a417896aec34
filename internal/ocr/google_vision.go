package ocr

import (
	"context"
	"errors"
	"fmt"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"

	"billtools/internal/logger"
)

// VisionRecognizer implements Recognizer using the Google Cloud Vision API.
type VisionRecognizer struct {
	client *vision.ImageAnnotatorClient
	log    zerolog.Logger
}

// NewVisionRecognizer creates a recognizer with credentials from environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env.
func NewVisionRecognizer(ctx context.Context) (*VisionRecognizer, error) {
	const op = "NewVisionRecognizer"

	opts := credentialOptions()
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		if len(opts) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, "failed to create Vision client")
	}

	return NewVisionRecognizerWithClient(client), nil
}

// NewVisionRecognizerWithClient creates a recognizer with an explicit client (for testing).
func NewVisionRecognizerWithClient(client *vision.ImageAnnotatorClient) *VisionRecognizer {
	return &VisionRecognizer{
		client: client,
		log:    logger.WithComponent("ocr.vision"),
	}
}

// Recognize runs DOCUMENT_TEXT_DETECTION on the inline image.
func (v *VisionRecognizer) Recognize(ctx context.Context, image []byte, languageHints []string, progress ProgressFunc) (string, error) {
	const op = "Recognize"

	if err := validateImage(op, image); err != nil {
		return "", err
	}
	progress.Report(10)

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				ImageContext: &visionpb.ImageContext{LanguageHints: languageHints},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", NewOCRError(op, ErrContextCanceled, "")
		}
		return "", WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	progress.Report(90)

	if len(resp.Responses) == 0 {
		return "", WrapOCRError(op, ErrOCRFailed, "no response from Vision API")
	}
	imageResp := resp.Responses[0]
	if imageResp.Error != nil {
		return "", WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", imageResp.Error.Message))
	}

	var text string
	if imageResp.FullTextAnnotation != nil {
		text = imageResp.FullTextAnnotation.Text
	} else if len(imageResp.TextAnnotations) > 0 {
		// The first annotation holds the whole text when no full annotation is returned.
		text = imageResp.TextAnnotations[0].Description
	}

	v.log.Debug().
		Int("image_bytes", len(image)).
		Strs("language_hints", languageHints).
		Int("text_length", len(text)).
		Msg("Vision recognition finished")

	progress.Report(100)
	return text, nil
}

// Close closes the underlying Vision client.
func (v *VisionRecognizer) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}
