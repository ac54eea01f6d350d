package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/copyleftdev/hypertune/internal/experiment"
	"github.com/copyleftdev/hypertune/internal/optimization"
)

// JSON-RPC 2.0 error codes. The -32004 code is server-defined.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
	codeNotFound       = -32004
)

type rpcMethod func(params json.RawMessage) (interface{}, error)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (s *Server) rpcMethods() map[string]rpcMethod {
	return map[string]rpcMethod{
		"experiment.create": func(params json.RawMessage) (interface{}, error) {
			var spec experiment.Spec
			if err := decodeParams(params, &spec); err != nil {
				return nil, err
			}
			id, err := s.store.Create(spec)
			if err != nil {
				return nil, err
			}
			return experimentRef{ID: id}, nil
		},
		"experiment.list": func(json.RawMessage) (interface{}, error) {
			return s.list(), nil
		},
		"experiment.status": s.withID(func(id string) (interface{}, error) {
			return s.store.Status(id)
		}),
		"experiment.delete": s.withID(func(id string) (interface{}, error) {
			if err := s.store.Delete(id); err != nil {
				return nil, err
			}
			return statusOK{Status: "OK"}, nil
		}),
		"experiment.ask": s.withID(func(id string) (interface{}, error) {
			c, err := s.store.Ask(id)
			if err != nil {
				return nil, err
			}
			return c.Decoded, nil
		}),
		"experiment.archive": s.withID(func(id string) (interface{}, error) {
			return s.store.Archive(id)
		}),
		"experiment.tell": func(params json.RawMessage) (interface{}, error) {
			var req struct {
				experimentRef
				tellRequest
			}
			if err := decodeParams(params, &req); err != nil {
				return nil, err
			}
			return s.tell(req.ID, req.tellRequest)
		},
		"strategies.list": func(json.RawMessage) (interface{}, error) {
			return s.store.Strategies(), nil
		},
	}
}

func (s *Server) withID(fn func(id string) (interface{}, error)) rpcMethod {
	return func(params json.RawMessage) (interface{}, error) {
		var ref experimentRef
		if err := decodeParams(params, &ref); err != nil {
			return nil, err
		}
		return fn(ref.ID)
	}
}

// decodeParams accepts either a params object or a single-element array
// wrapping it.
func decodeParams(raw json.RawMessage, dst interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var positional []json.RawMessage
		if err := json.Unmarshal(raw, &positional); err != nil {
			return &invalidParamsError{err}
		}
		if len(positional) != 1 {
			return &invalidParamsError{errExpectedOneParam}
		}
		raw = positional[0]
	}
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &invalidParamsError{err}
	}
	return nil
}

var errExpectedOneParam = errors.New("expected exactly one positional parameter")

type invalidParamsError struct{ err error }

func (e *invalidParamsError) Error() string { return "invalid params: " + e.err.Error() }
func (e *invalidParamsError) Unwrap() error { return e.err }

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, rpcError{Code: codeParseError, Message: "Parse error"}, nil)
		return
	}

	if request.JSONRPC != "2.0" || request.Method == "" {
		s.respondWithError(w, rpcError{Code: codeInvalidRequest, Message: "Invalid Request"}, request.ID)
		return
	}

	method, ok := s.methods[request.Method]
	if !ok {
		s.respondWithError(w, rpcError{Code: codeMethodNotFound, Message: "Method not found"}, request.ID)
		return
	}

	result, err := method(request.Params)
	if err != nil {
		s.respondWithError(w, toRPCError(err), request.ID)
		return
	}

	s.respond(w, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	})
}

func toRPCError(err error) rpcError {
	if _, ok := err.(*invalidParamsError); ok {
		return rpcError{Code: codeInvalidParams, Message: err.Error()}
	}

	switch kind := optimization.KindOf(err); kind {
	case optimization.KindNotFound:
		return rpcError{Code: codeNotFound, Message: err.Error(), Data: map[string]string{"kind": string(kind)}}
	case optimization.KindInvalidSpec,
		optimization.KindUnknownStrategy,
		optimization.KindMalformedPoint,
		optimization.KindMalformedValue:
		return rpcError{Code: codeInvalidParams, Message: err.Error(), Data: map[string]string{"kind": string(kind)}}
	default:
		return rpcError{Code: codeInternalError, Message: "Internal error"}
	}
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, rpcErr rpcError, id interface{}) {
	fields := map[string]interface{}{
		"code":    rpcErr.Code,
		"message": rpcErr.Message,
	}
	if rpcErr.Code == codeInternalError {
		s.logger.Error("Request error", fields)
	} else {
		s.logger.Debug("Request error", fields)
	}

	s.respond(w, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"error":   rpcErr,
		"id":      id,
	})
}
