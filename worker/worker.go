// Package worker - MQTT request/response front end for the pose pipeline. Requests arrive on a
// single topic and each response is published to "<response prefix>/<request id>".
package worker

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-pose/config"
	"github.com/nvr-ai/go-pose/images"
	"github.com/nvr-ai/go-pose/logger"
	"github.com/nvr-ai/go-pose/models/pose"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Processor runs the pipeline for a single pair.
type Processor interface {
	Process(ctx context.Context, img image.Image, roi images.NormalizedRect) (pose.Result, error)
}

// Request asks for the landmarks of one ROI in one encoded frame.
type Request struct {
	RequestID string                 `json:"request_id"`
	Image     string                 `json:"image"`
	Format    images.ImageFormat     `json:"format"`
	ROI       *images.NormalizedRect `json:"roi,omitempty"`
}

// Response is published for every request. Landmarks is omitted when no pose was detected.
type Response struct {
	RequestID string            `json:"request_id"`
	Present   bool              `json:"present"`
	Score     float32           `json:"score"`
	Landmarks pose.LandmarkList `json:"landmarks,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Handler decodes requests and runs them through a Processor.
type Handler struct {
	Processor Processor
	Log       logrus.FieldLogger
}

// Handle processes one raw request payload. It never fails: decode and pipeline errors are
// reported in the response.
//
// Arguments:
//   - ctx: The context for the pipeline.
//   - payload: The JSON encoded Request.
//
// Returns:
//   - Response: The response to publish.
func (h *Handler) Handle(ctx context.Context, payload []byte) Response {
	log := h.Log
	if log == nil {
		log = logger.Discard()
	}

	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		log.WithError(err).Warn("can't parse request")
		return Response{Error: fmt.Sprintf("invalid request: %v", err)}
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	resp := Response{RequestID: req.RequestID}
	log = log.WithField(logger.RequestIDKey, req.RequestID)

	data, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		resp.Error = fmt.Sprintf("invalid image encoding: %v", err)
		return resp
	}
	format := req.Format
	if format == "" {
		format = images.FormatJPEG
	}
	img, err := images.Decode(data, format)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	roi := images.FullFrame()
	if req.ROI != nil {
		roi = *req.ROI
	}

	start := time.Now()
	result, err := h.Processor.Process(ctx, img, roi)
	if err != nil {
		log.WithError(err).Warn("pose pipeline failed")
		resp.Error = err.Error()
		return resp
	}

	resp.Score = result.Presence.Score
	if landmarks, ok := result.Landmarks(); ok {
		resp.Present = true
		resp.Landmarks = landmarks
	}
	log.WithFields(logrus.Fields{
		"present":  resp.Present,
		"score":    resp.Score,
		"duration": time.Since(start),
	}).Debug("request handled")
	return resp
}

// Worker serves requests from an MQTT broker.
type Worker struct {
	cfg     config.MQTT
	handler *Handler
	log     logrus.FieldLogger
	client  mqtt.Client

	mu       sync.Mutex
	stopping bool
	wg       sync.WaitGroup
}

// New creates a worker. Call Start to connect.
func New(cfg config.MQTT, p Processor, log logrus.FieldLogger) *Worker {
	if log == nil {
		log = logger.Discard()
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "pose-worker-" + uuid.NewString()
	}
	return &Worker{
		cfg:     cfg,
		handler: &Handler{Processor: p, Log: log},
		log:     log,
	}
}

// ResponseTopic returns the topic the response to id is published on.
func (w *Worker) ResponseTopic(id string) string {
	return w.cfg.ResponsePrefix + "/" + id
}

// Start connects to the broker and subscribes to the request topic. Each request is handled on
// its own goroutine until ctx is done.
func (w *Worker) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions().AddBroker(w.cfg.Broker).SetClientID(w.cfg.ClientID)
	if w.cfg.Username != "" {
		opts.SetUsername(w.cfg.Username)
		opts.SetPassword(w.cfg.Password)
	}
	opts.SetKeepAlive(2 * time.Second)
	opts.SetPingTimeout(1 * time.Second)
	opts.SetConnectTimeout(30 * time.Second)
	opts.SetAutoReconnect(true)

	opts.OnConnect = func(c mqtt.Client) {
		w.log.WithField("broker", w.cfg.Broker).Info("connected to MQTT")
		token := c.Subscribe(w.cfg.RequestTopic, w.cfg.QoS, func(c mqtt.Client, m mqtt.Message) {
			w.dispatch(ctx, c, m.Payload())
		})
		if token.Wait() && token.Error() != nil {
			w.log.WithError(token.Error()).Error("can't subscribe to request topic")
			return
		}
		w.log.WithField("topic", w.cfg.RequestTopic).Info("subscribed")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		w.log.WithError(err).Warn("MQTT connection lost")
	}

	w.client = mqtt.NewClient(opts)
	if token := w.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to %s: %w", w.cfg.Broker, token.Error())
	}
	return nil
}

// dispatch handles payload on its own goroutine. It reports false once Stop has begun, in which
// case the message is dropped.
func (w *Worker) dispatch(ctx context.Context, c mqtt.Client, payload []byte) bool {
	w.mu.Lock()
	if w.stopping {
		w.mu.Unlock()
		w.log.Debug("worker stopping, request dropped")
		return false
	}
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		w.reply(ctx, c, payload)
	}()
	return true
}

func (w *Worker) reply(ctx context.Context, c mqtt.Client, payload []byte) {
	resp := w.handler.Handle(ctx, payload)
	if resp.RequestID == "" {
		return
	}
	body, err := json.Marshal(resp)
	if err != nil {
		w.log.WithError(err).Error("can't encode response")
		return
	}
	topic := w.ResponseTopic(resp.RequestID)
	if token := c.Publish(topic, w.cfg.QoS, false, body); token.Wait() && token.Error() != nil {
		w.log.WithError(token.Error()).WithField(logger.RequestIDKey, resp.RequestID).Error("can't publish response")
	}
}

// Stop unsubscribes from the request topic, waits for in-flight requests and disconnects.
// Requests delivered after Stop begins are dropped.
func (w *Worker) Stop() {
	connected := w.client != nil && w.client.IsConnected()
	if connected {
		token := w.client.Unsubscribe(w.cfg.RequestTopic)
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			w.log.WithError(token.Error()).Warn("can't unsubscribe from request topic")
		}
	}

	w.mu.Lock()
	w.stopping = true
	w.mu.Unlock()
	w.wg.Wait()

	if connected {
		w.client.Disconnect(250)
	}
}

// ProcessorFunc adapts a plain function to the Processor interface.
type ProcessorFunc func(ctx context.Context, img image.Image, roi images.NormalizedRect) (pose.Result, error)

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, img image.Image, roi images.NormalizedRect) (pose.Result, error) {
	return f(ctx, img, roi)
}
