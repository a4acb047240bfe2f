package run

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"eventcast/domain/core"
	"eventcast/domain/forecast"
)

// Manifest records what a run was computed from. Two runs with the same
// fingerprint produce the same numbers.
type Manifest struct {
	RunID          core.RunID     `json:"run_id"`
	InputHash      core.InputHash `json:"input_hash"`
	ParamsHash     core.Hash      `json:"params_hash"`
	CriticalMethod string         `json:"critical_method"`
	Request        Request        `json:"request"`
	CodeVersion    string         `json:"code_version"`
	Fingerprint    core.Hash      `json:"fingerprint"` // hash of all of the above except RunID
	CreatedAt      core.Timestamp `json:"created_at"`
}

// NewManifest creates a manifest for a run about to start
func NewManifest(
	runID core.RunID,
	inputHash core.InputHash,
	params forecast.Params,
	criticalMethod string,
	req Request,
	codeVersion string,
) *Manifest {
	paramsHash := HashParams(params)
	return &Manifest{
		RunID:          runID,
		InputHash:      inputHash,
		ParamsHash:     paramsHash,
		CriticalMethod: criticalMethod,
		Request:        req,
		CodeVersion:    codeVersion,
		Fingerprint:    computeFingerprint(inputHash, paramsHash, criticalMethod, req, codeVersion),
		CreatedAt:      core.Now(),
	}
}

// HashParams fingerprints the engine parameters
func HashParams(params forecast.Params) core.Hash {
	// map keys are marshalled in sorted order
	data, err := json.Marshal(params)
	if err != nil {
		return core.NewHash([]byte(fmt.Sprintf("%+v", params)))
	}
	return core.NewHash(data)
}

func computeFingerprint(inputHash core.InputHash, paramsHash core.Hash, criticalMethod string, req Request, codeVersion string) core.Hash {
	reqData, _ := json.Marshal(req)
	data := fmt.Sprintf("input:%s|params:%s|critical:%s|request:%s|code:%s",
		inputHash, paramsHash, criticalMethod, reqData, codeVersion)

	hash := sha256.Sum256([]byte(data))
	return core.Hash(fmt.Sprintf("%x", hash))
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewValidationError("run_manifest", "run_id cannot be empty")
	}
	if m.InputHash == "" {
		return core.NewValidationError("run_manifest", "input_hash cannot be empty")
	}
	if m.ParamsHash.IsEmpty() {
		return core.NewValidationError("run_manifest", "params_hash cannot be empty")
	}
	if m.CodeVersion == "" {
		return core.NewValidationError("run_manifest", "code_version cannot be empty")
	}
	return nil
}
