package toolsurface

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/quintant/lumora/internal/version"
)

func (s *Server) handleMessage(msg *Message) *Message {
	switch {
	case msg.isRequest():
		return s.handleRequest(msg)
	case msg.isNotification():
		s.handleNotification(msg)
		return nil
	default:
		return newErrorMessage(msg.ID, CodeInvalidRequest, "message is neither a request nor a notification")
	}
}

func (s *Server) handleRequest(msg *Message) *Message {
	switch msg.Method {
	case "initialize":
		return newResultMessage(msg.ID, s.handleInitialize())
	case "tools/list":
		return newResultMessage(msg.ID, s.handleListTools())
	case "tools/call":
		result, err := s.handleCallTool(msg.Params)
		if err != nil {
			return newErrorMessage(msg.ID, CodeInvalidParams, err.Error())
		}
		return newResultMessage(msg.ID, result)
	default:
		return newErrorMessage(msg.ID, CodeMethodNotFound, fmt.Sprintf("method not found: %s", msg.Method))
	}
}

func (s *Server) handleNotification(msg *Message) {
	s.logger.Debug("notification", map[string]interface{}{"method": msg.Method})
}

func (s *Server) handleInitialize() interface{} {
	return map[string]interface{}{
		"protocolVersion": "2024-11-05",
		"serverInfo": map[string]interface{}{
			"name":    "lumora",
			"version": version.Version,
		},
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
	}
}

func (s *Server) handleListTools() interface{} {
	return map[string]interface{}{"tools": toolDefinitions()}
}

func asParamsObject(params interface{}) map[string]interface{} {
	obj, ok := params.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return obj
}

func (s *Server) handleCallTool(params interface{}) (interface{}, error) {
	obj := asParamsObject(params)

	name, _ := obj["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("missing required field: name")
	}

	args := asParamsObject(obj["arguments"])

	handler, ok := s.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}

	traceID := uuid.NewString()
	s.logger.Info("calling tool", map[string]interface{}{"tool": name, "trace_id": traceID})

	result, callErr := handler(s, args)
	if callErr != nil {
		s.logger.Warn("tool call failed", map[string]interface{}{"tool": name, "trace_id": traceID, "error": callErr.Error()})
		return toolTextContent(map[string]interface{}{"error": callErr.Error()}), nil
	}
	return toolTextContent(result), nil
}

func toolTextContent(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"error":%q}`, err.Error()))
	}
	return map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": string(data)},
		},
	}
}
