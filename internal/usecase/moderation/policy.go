package moderation

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	domainmoderation "modqueue/internal/domain/moderation"
	"modqueue/internal/errs"
)

const policyVersion = 1

// Policy is the reason policy plus the quick reasons the CLI and HTTP surfaces substitute.
type Policy struct {
	Reasons      domainmoderation.ReasonPolicy
	QuickApprove string
	QuickReject  string
}

func DefaultPolicy() Policy {
	return Policy{
		Reasons:      domainmoderation.DefaultReasonPolicy(),
		QuickApprove: "Quick approve",
		QuickReject:  "Quick reject",
	}
}

func (p Policy) isZero() bool {
	return p.Reasons.AppealDefault == "" && len(p.Reasons.Boilerplate) == 0 && p.QuickApprove == "" && p.QuickReject == ""
}

// QuickReason returns the canned reason for action, or "" when none applies.
func (p Policy) QuickReason(action domainmoderation.Action) string {
	switch action {
	case domainmoderation.ActionApprove:
		return p.QuickApprove
	case domainmoderation.ActionReject:
		return p.QuickReject
	default:
		return ""
	}
}

type policyReasons struct {
	AppealDefault     *string  `toml:"appeal_default"`
	RejectBoilerplate *bool    `toml:"reject_boilerplate"`
	Boilerplate       []string `toml:"boilerplate"`
	MinLength         *int     `toml:"min_length"`
}

type policyQuick struct {
	Approve *string `toml:"approve"`
	Reject  *string `toml:"reject"`
}

type policyFile struct {
	Version int           `toml:"version"`
	Reasons policyReasons `toml:"reasons"`
	Quick   policyQuick   `toml:"quick"`
}

// LoadPolicy reads a TOML policy file. An empty path returns DefaultPolicy.
// Keys missing from the file keep their defaults.
func LoadPolicy(path string) (Policy, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultPolicy(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, errs.Wrapf(err, "read policy file %q", path)
	}
	return ParsePolicy(raw)
}

func ParsePolicy(raw []byte) (Policy, error) {
	var file policyFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return Policy{}, errs.Wrap(err, "decode policy toml")
	}
	if file.Version != policyVersion {
		return Policy{}, fmt.Errorf("unsupported policy version %d: expected version = %d", file.Version, policyVersion)
	}

	policy := DefaultPolicy()
	if v := file.Reasons.AppealDefault; v != nil {
		if strings.TrimSpace(*v) == "" {
			return Policy{}, fmt.Errorf("reasons.appeal_default must not be blank")
		}
		policy.Reasons.AppealDefault = strings.TrimSpace(*v)
	}
	if v := file.Reasons.RejectBoilerplate; v != nil {
		policy.Reasons.RejectBoilerplate = *v
	}
	if file.Reasons.Boilerplate != nil {
		policy.Reasons.Boilerplate = trimmedNonEmpty(file.Reasons.Boilerplate)
	}
	if v := file.Reasons.MinLength; v != nil {
		if *v < 1 {
			return Policy{}, fmt.Errorf("reasons.min_length must be at least 1")
		}
		policy.Reasons.MinLength = *v
	}
	if v := file.Quick.Approve; v != nil {
		policy.QuickApprove = strings.TrimSpace(*v)
	}
	if v := file.Quick.Reject; v != nil {
		policy.QuickReject = strings.TrimSpace(*v)
	}
	return policy, nil
}
