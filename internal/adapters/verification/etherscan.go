package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/govdeploy/internal/adapters/artifacts"
	"github.com/trebuchet-org/govdeploy/internal/adapters/blockchain"
	"github.com/trebuchet-org/govdeploy/internal/domain"
	"github.com/trebuchet-org/govdeploy/internal/usecase"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultMaxPolls     = 24
)

// EtherscanVerifier submits sources to Etherscan-compatible explorers using the
// solidity-standard-json-input format.
type EtherscanVerifier struct {
	client       *http.Client
	artifacts    blockchain.ArtifactSource
	pollInterval time.Duration
	maxPolls     int
	log          *slog.Logger
}

// NewEtherscanVerifier creates a new verifier
func NewEtherscanVerifier(repo *artifacts.Repository, log *slog.Logger) *EtherscanVerifier {
	return NewEtherscanVerifierWithClient(repo, &http.Client{Timeout: 30 * time.Second}, log)
}

// NewEtherscanVerifierWithClient creates a verifier using an explicit HTTP client
func NewEtherscanVerifierWithClient(source blockchain.ArtifactSource, client *http.Client, log *slog.Logger) *EtherscanVerifier {
	return &EtherscanVerifier{
		client:       client,
		artifacts:    source,
		pollInterval: defaultPollInterval,
		maxPolls:     defaultMaxPolls,
		log:          log.With("component", "etherscan"),
	}
}

// SetPolling overrides how the verification status is polled
func (v *EtherscanVerifier) SetPolling(interval time.Duration, maxPolls int) {
	if interval > 0 {
		v.pollInterval = interval
	}
	if maxPolls > 0 {
		v.maxPolls = maxPolls
	}
}

// SubmitSource submits the component's source and waits for the explorer verdict
func (v *EtherscanVerifier) SubmitSource(ctx context.Context, req usecase.VerificationRequest) (*usecase.VerificationResult, error) {
	if req.Network == nil || req.Network.ExplorerAPIURL == "" {
		return nil, fmt.Errorf("%w: no explorer API configured", domain.ErrVerifierUnavailable)
	}

	artifact, err := v.artifacts.Load(req.Artifact)
	if err != nil {
		return nil, err
	}
	if len(artifact.StandardInput) == 0 || artifact.CompilerVersion == "" {
		return nil, fmt.Errorf("artifact %s has no compiler metadata", req.Artifact)
	}

	constructorArgs, err := encodeConstructorArgs(artifact, req.ConstructorArgs)
	if err != nil {
		return nil, err
	}

	data := url.Values{}
	data.Set("apikey", req.Credential)
	data.Set("module", "contract")
	data.Set("action", "verifysourcecode")
	data.Set("contractaddress", req.Address)
	data.Set("sourceCode", string(artifact.StandardInput))
	data.Set("codeformat", "solidity-standard-json-input")
	data.Set("contractname", artifact.FullyQualifiedName())
	data.Set("compilerversion", artifact.CompilerVersion)
	if constructorArgs != "" {
		data.Set("constructorArguements", constructorArgs) // Note: Etherscan typo
	}
	if req.Network.ChainID != 0 {
		data.Set("chainid", strconv.FormatUint(req.Network.ChainID, 10))
	}

	submitted, err := v.call(ctx, http.MethodPost, req.Network.ExplorerAPIURL, data)
	if err != nil {
		return nil, err
	}
	if submitted.Status != "1" {
		if isAlreadyVerified(submitted.Result) {
			return nil, fmt.Errorf("%s: %w", req.Address, domain.ErrAlreadyVerified)
		}
		return &usecase.VerificationResult{Accepted: false, Message: submitted.Result}, nil
	}

	guid := submitted.Result
	v.log.Info("verification submitted", "name", req.Component, "address", req.Address, "guid", guid)

	result, err := v.poll(ctx, req, guid)
	if err != nil {
		return nil, err
	}
	result.GUID = guid
	if result.Accepted && req.Network.ExplorerURL != "" {
		result.ExplorerURL = fmt.Sprintf("%s/address/%s#code", req.Network.ExplorerURL, req.Address)
	}
	return result, nil
}

// poll checks the submission status until the explorer reaches a verdict
func (v *EtherscanVerifier) poll(ctx context.Context, req usecase.VerificationRequest, guid string) (*usecase.VerificationResult, error) {
	params := url.Values{}
	params.Set("apikey", req.Credential)
	params.Set("module", "contract")
	params.Set("action", "checkverifystatus")
	params.Set("guid", guid)
	if req.Network.ChainID != 0 {
		params.Set("chainid", strconv.FormatUint(req.Network.ChainID, 10))
	}

	ticker := time.NewTicker(v.pollInterval)
	defer ticker.Stop()

	for i := 0; i < v.maxPolls; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		status, err := v.call(ctx, http.MethodGet, req.Network.ExplorerAPIURL, params)
		if err != nil {
			return nil, err
		}

		switch {
		case strings.Contains(strings.ToLower(status.Result), "pending"):
			v.log.Debug("verification pending", "guid", guid)
			continue
		case isAlreadyVerified(status.Result):
			return nil, fmt.Errorf("%s: %w", req.Address, domain.ErrAlreadyVerified)
		case status.Status == "1":
			return &usecase.VerificationResult{Accepted: true, Message: status.Result}, nil
		default:
			return &usecase.VerificationResult{Accepted: false, Message: status.Result}, nil
		}
	}

	return &usecase.VerificationResult{
		Accepted: false,
		Message:  fmt.Sprintf("verification still pending after %d checks (guid %s)", v.maxPolls, guid),
	}, nil
}

// etherscanResponse represents Etherscan API response
type etherscanResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

func (v *EtherscanVerifier) call(ctx context.Context, method, apiURL string, values url.Values) (*etherscanResponse, error) {
	var (
		httpReq *http.Request
		err     error
	)
	if method == http.MethodPost {
		httpReq, err = http.NewRequestWithContext(ctx, method, apiURL, strings.NewReader(values.Encode()))
		if err == nil {
			httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		sep := "?"
		if strings.Contains(apiURL, "?") {
			sep = "&"
		}
		httpReq, err = http.NewRequestWithContext(ctx, method, apiURL+sep+values.Encode(), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := v.client.Do(httpReq) //nolint:gosec // URL is constructed from configured explorer endpoint
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVerifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: HTTP %d: %s", domain.ErrVerifierUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result etherscanResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &result, nil
}

// encodeConstructorArgs returns the ABI-encoded constructor arguments as hex
// without the 0x prefix, as explorers expect.
func encodeConstructorArgs(artifact *artifacts.Artifact, args []any) (string, error) {
	if len(artifact.ABI.Constructor.Inputs) == 0 {
		return "", nil
	}
	coerced, err := blockchain.CoerceArgs(artifact.ABI.Constructor.Inputs, args)
	if err != nil {
		return "", fmt.Errorf("constructor of %s: %w", artifact.Name, err)
	}
	packed, err := artifact.ABI.Pack("", coerced...)
	if err != nil {
		return "", fmt.Errorf("failed to encode constructor arguments: %w", err)
	}
	return common.Bytes2Hex(packed), nil
}

func isAlreadyVerified(result string) bool {
	return strings.Contains(strings.ToLower(result), "already verified")
}

var _ usecase.SourceVerifier = (*EtherscanVerifier)(nil)
