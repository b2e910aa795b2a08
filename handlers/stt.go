package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"aerovoice/config"
	"aerovoice/services/dialog"
	"aerovoice/utils"

	speech "cloud.google.com/go/speech/apiv1"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"
)

const (
	MaxAudioFileSize = 5 * 1024 * 1024 // 5MB
	AllowedExtension = ".wav"
)

// VoiceHandler accepts a spoken turn as audio, transcribes it, and feeds the
// transcript through the dialog engine as a regular turn.
type VoiceHandler struct {
	Engine dialog.Engine
	Logger *zap.Logger
}

func NewVoiceHandler(engine dialog.Engine, logger *zap.Logger) *VoiceHandler {
	return &VoiceHandler{Engine: engine, Logger: logger}
}

// toLinear16 resamples arbitrary input to 16kHz mono PCM for the recognizer.
func toLinear16(inputPath, outputPath string) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in system PATH: %v", err)
	}

	cmd := exec.Command("ffmpeg",
		"-y",
		"-i", inputPath,
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", "16000",
		outputPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg conversion failed: %s", stderr.String())
	}
	return nil
}

// VoiceTurnHandler handles POST /api/dialog/:sessionID/voice-turn with a
// multipart "audio" file.
func (h *VoiceHandler) VoiceTurnHandler(c *gin.Context) {
	sessionID := c.Param("sessionID")
	language := c.DefaultPostForm("language", "en-US")

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required", "details": err.Error()})
		return
	}
	defer file.Close()

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != AllowedExtension {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid file type",
			"details": fmt.Sprintf("expected %s, got %s", AllowedExtension, ext),
		})
		return
	}

	tempInput, err := os.CreateTemp("", "turn-*.wav")
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to create temp file", err.Error())
		return
	}
	defer os.Remove(tempInput.Name())
	defer tempInput.Close()

	if _, err := io.Copy(tempInput, io.LimitReader(file, MaxAudioFileSize)); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to save audio file", err.Error())
		return
	}

	tempOutput, err := os.CreateTemp("", "turn-16k-*.wav")
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to create output temp file", err.Error())
		return
	}
	defer os.Remove(tempOutput.Name())
	defer tempOutput.Close()

	if err := toLinear16(tempInput.Name(), tempOutput.Name()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio conversion failed", "details": err.Error()})
		return
	}

	audioData, err := os.ReadFile(tempOutput.Name())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to read converted audio", err.Error())
		return
	}

	ctx := c.Request.Context()
	client, err := speech.NewClient(ctx, option.WithCredentialsFile(config.AppConfig.GoogleServiceAccountFile))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to initialize speech client", err.Error())
		return
	}
	defer client.Close()

	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   16000,
			LanguageCode:      language,
			AudioChannelCount: 1,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audioData},
		},
	})
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "speech recognition failed", err.Error())
		return
	}

	var transcript strings.Builder
	for _, result := range resp.Results {
		for _, alt := range result.Alternatives {
			transcript.WriteString(alt.Transcript + " ")
		}
	}
	text := strings.TrimSpace(transcript.String())
	if text == "" {
		c.JSON(http.StatusOK, gin.H{"transcription": "", "outcome": nil})
		return
	}

	outcome, err := h.Engine.ProcessTurn(ctx, sessionID, text, time.Now())
	if err != nil {
		if errors.Is(err, dialog.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found or expired"})
			return
		}
		h.Logger.Error("voice turn failed", zap.Error(err), zap.String("sessionId", sessionID))
		utils.JSONError(c, http.StatusInternalServerError, "failed to process turn", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transcription": text,
		"outcome":       outcome,
	})
}
