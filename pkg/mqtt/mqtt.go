// Package mqtt provides MQTT communication for the bot: moderation events
// are published on the bus and other services can query the bot with a
// request/response pattern.
package mqtt

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	requestPrefix  = "pancy/request/"
	responsePrefix = "pancy/response/"
)

// ErrNotConnected is returned when publishing without a broker connection
var ErrNotConnected = errors.New("mqtt client not connected")

// MqttRequest represents an MQTT request message
type MqttRequest struct {
	CorrelationID string      `json:"correlationId"`
	Payload       interface{} `json:"payload,omitempty"`
}

// MqttResponse represents an MQTT response message
type MqttResponse struct {
	CorrelationID string      `json:"correlationId"`
	Data          interface{} `json:"data"`
	Error         string      `json:"error,omitempty"`
}

// MessageHandler receives messages of a subscription
type MessageHandler func(topic string, payload []byte)

// MqttCommunicator handles MQTT communication. Subscriptions are kept
// locally and restored after every reconnect.
type MqttCommunicator struct {
	client   mqtt.Client
	clientID string

	mu     sync.RWMutex
	routes map[string]MessageHandler
}

var (
	communicator *MqttCommunicator
	once         sync.Once
)

// Init initializes the global MQTT communicator
func Init(host, port, username, password, clientID string) *MqttCommunicator {
	once.Do(func() {
		communicator = NewMqttCommunicator(host, port, username, password, clientID)
	})
	return communicator
}

// Get returns the global MQTT communicator
func Get() *MqttCommunicator {
	return communicator
}

func newCommunicator(clientID string) *MqttCommunicator {
	return &MqttCommunicator{
		clientID: clientID,
		routes:   make(map[string]MessageHandler),
	}
}

// NewMqttCommunicator creates a communicator and connects in the background
func NewMqttCommunicator(host, port, username, password, clientID string) *MqttCommunicator {
	mc := newCommunicator(clientID)

	uniqueID := fmt.Sprintf("%s_%s", clientID, uuid.New().String())

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%s", host, port)).
		SetClientID(uniqueID).
		SetUsername(username).
		SetPassword(password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetDefaultPublishHandler(func(_ mqtt.Client, msg mqtt.Message) {
			mc.dispatch(msg.Topic(), msg.Payload())
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			logger.Success(fmt.Sprintf("Conectado al broker MQTT como %s", clientID), "MQTT")
			mc.resubscribe()
		}).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			logger.Error(fmt.Sprintf("Conexión MQTT perdida: %v", err), "MQTT")
		})

	mc.client = mqtt.NewClient(opts)

	token := mc.client.Connect()
	if token.WaitTimeout(10*time.Second) && token.Error() != nil {
		logger.Error(fmt.Sprintf("Error de conexión MQTT: %v", token.Error()), "MQTT")
	}

	return mc
}

// Destroy closes the MQTT connection
func (mc *MqttCommunicator) Destroy() {
	if mc.IsConnected() {
		mc.client.Disconnect(250)
		logger.System("Conexión MQTT cerrada exitosamente.", "MQTT")
	} else {
		logger.Warn("El cliente MQTT no estaba conectado, no se necesita cerrar.", "MQTT")
	}
}

// IsConnected returns true if connected to the broker
func (mc *MqttCommunicator) IsConnected() bool {
	return mc != nil && mc.client != nil && mc.client.IsConnected()
}

// Publish sends a JSON message to a topic
func (mc *MqttCommunicator) Publish(topic string, payload interface{}) error {
	if !mc.IsConnected() {
		return ErrNotConnected
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	token := mc.client.Publish(topic, 0, false, jsonData)
	token.Wait()
	return token.Error()
}

// Request sends a request and waits for a response
func (mc *MqttCommunicator) Request(topic string, payload interface{}, timeout time.Duration) (interface{}, error) {
	correlationID := uuid.New().String()
	responseTopic := responsePrefix + topic + "/" + correlationID

	responseChan := make(chan MqttResponse, 1)
	errChan := make(chan error, 1)

	err := mc.Subscribe(responseTopic, func(_ string, data []byte) {
		var response MqttResponse
		if err := json.Unmarshal(data, &response); err != nil {
			errChan <- err
			return
		}
		if response.CorrelationID == correlationID {
			responseChan <- response
		}
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = mc.Unsubscribe(responseTopic) }()

	request := MqttRequest{
		CorrelationID: correlationID,
		Payload:       payload,
	}
	if err := mc.Publish(requestPrefix+topic, request); err != nil {
		return nil, err
	}

	select {
	case response := <-responseChan:
		if response.Error != "" {
			return nil, errors.New(response.Error)
		}
		return response.Data, nil
	case err := <-errChan:
		return nil, err
	case <-time.After(timeout):
		return nil, fmt.Errorf("la petición a '%s' ha expirado (timeout)", topic)
	}
}

// RequestHandler is a function type for handling MQTT requests
type RequestHandler func(payload map[string]interface{}) (interface{}, error)

// On registers a handler for a request topic. The topic may hold wildcards.
func (mc *MqttCommunicator) On(requestTopic string, callback RequestHandler) error {
	return mc.Subscribe(requestPrefix+requestTopic, mc.requestHandler(callback))
}

func (mc *MqttCommunicator) requestHandler(callback RequestHandler) MessageHandler {
	return func(topic string, data []byte) {
		var request MqttRequest
		if err := json.Unmarshal(data, &request); err != nil {
			logger.Error(fmt.Sprintf("Error parsing MQTT request: %v", err), "MQTT")
			return
		}

		actualTopic := strings.TrimPrefix(topic, requestPrefix)
		response := handleRequest(actualTopic, request, callback)

		if err := mc.Publish(responsePrefix+actualTopic+"/"+request.CorrelationID, response); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo responder a %s: %v", actualTopic, err), "MQTT")
		}
	}
}

func handleRequest(topic string, request MqttRequest, callback RequestHandler) MqttResponse {
	payloadMap := make(map[string]interface{})
	if pm, ok := request.Payload.(map[string]interface{}); ok {
		payloadMap = pm
	}
	payloadMap["_topic"] = topic

	data, err := callback(payloadMap)
	if err != nil {
		return MqttResponse{CorrelationID: request.CorrelationID, Error: err.Error()}
	}
	return MqttResponse{CorrelationID: request.CorrelationID, Data: data}
}

// Subscribe routes messages matching pattern to handler
func (mc *MqttCommunicator) Subscribe(pattern string, handler MessageHandler) error {
	mc.mu.Lock()
	mc.routes[pattern] = handler
	mc.mu.Unlock()

	if !mc.IsConnected() {
		// restored by resubscribe once connected
		return nil
	}
	token := mc.client.Subscribe(pattern, 0, nil)
	token.Wait()
	return token.Error()
}

// Unsubscribe unsubscribes from a topic
func (mc *MqttCommunicator) Unsubscribe(pattern string) error {
	mc.mu.Lock()
	delete(mc.routes, pattern)
	mc.mu.Unlock()

	if !mc.IsConnected() {
		return nil
	}
	token := mc.client.Unsubscribe(pattern)
	token.Wait()
	return token.Error()
}

func (mc *MqttCommunicator) resubscribe() {
	mc.mu.RLock()
	filters := make(map[string]byte, len(mc.routes))
	for pattern := range mc.routes {
		filters[pattern] = 0
	}
	mc.mu.RUnlock()

	if len(filters) == 0 {
		return
	}
	token := mc.client.SubscribeMultiple(filters, nil)
	if token.Wait() && token.Error() != nil {
		logger.Error(fmt.Sprintf("Error restaurando suscripciones: %v", token.Error()), "MQTT")
	}
}

// dispatch hands a message to every route whose pattern matches
func (mc *MqttCommunicator) dispatch(topic string, payload []byte) int {
	mc.mu.RLock()
	var handlers []MessageHandler
	for pattern, h := range mc.routes {
		if topicMatch(pattern, topic) {
			handlers = append(handlers, h)
		}
	}
	mc.mu.RUnlock()

	for _, h := range handlers {
		h(topic, payload)
	}
	return len(handlers)
}

// topicMatch checks if a received topic matches a pattern (with wildcards)
// '+' matches exactly one topic level
// '#' matches zero or more topic levels and must be the last character
func topicMatch(pattern, topic string) bool {
	patternParts := strings.Split(pattern, "/")
	topicParts := strings.Split(topic, "/")

	patternLen := len(patternParts)
	topicLen := len(topicParts)

	for i := 0; i < patternLen; i++ {
		if patternParts[i] == "#" {
			return true
		}
		if i >= topicLen {
			return false
		}
		if patternParts[i] == "+" {
			continue
		}
		if patternParts[i] != topicParts[i] {
			return false
		}
	}

	return patternLen == topicLen
}
