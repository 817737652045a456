package httpapi

import (
	"encoding/json"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/types"
)

// Protobuf clients send and receive google.protobuf.Struct messages whose
// keys match the JSON field names, so both directions go through the JSON
// mapping of the wire types.

// ── Scan ─────────────────────────────────────────────────────────────────────

func scanRequestFromStruct(p *structpb.Struct) (types.ScanRequest, error) {
	var req types.ScanRequest
	data, err := protojson.Marshal(p)
	if err != nil {
		return req, err
	}
	err = json.Unmarshal(data, &req)
	return req, err
}

func scanResponseToStruct(r types.ScanResponse) (*structpb.Struct, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	msg := &structpb.Struct{}
	if err := protojson.Unmarshal(data, msg); err != nil {
		return nil, err
	}
	return msg, nil
}
