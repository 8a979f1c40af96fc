package moderation

import (
	"os"
	"path/filepath"
	"testing"

	domainmoderation "modqueue/internal/domain/moderation"
)

func TestLoadPolicyOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.toml")
	raw := `version = 1

[reasons]
appeal_default = "Author asked for another look"
reject_boilerplate = true
min_length = 5

[quick]
approve = "Approved via quick action"
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	policy, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy() error = %v", err)
	}
	if policy.Reasons.AppealDefault != "Author asked for another look" || !policy.Reasons.RejectBoilerplate || policy.Reasons.MinLength != 5 {
		t.Fatalf("reasons = %+v", policy.Reasons)
	}
	if len(policy.Reasons.Boilerplate) != 2 {
		t.Fatalf("boilerplate should keep defaults, got %v", policy.Reasons.Boilerplate)
	}
	if policy.QuickReason(domainmoderation.ActionApprove) != "Approved via quick action" || policy.QuickReason(domainmoderation.ActionReject) != "Quick reject" {
		t.Fatalf("quick = %q / %q", policy.QuickApprove, policy.QuickReject)
	}
	if policy.QuickReason(domainmoderation.ActionSubmitAppeal) != "" {
		t.Fatalf("appeal has no quick reason")
	}
}

func TestParsePolicyRejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"wrong version": "version = 2\n",
		"blank default": "version = 1\n[reasons]\nappeal_default = \" \"\n",
		"zero length":   "version = 1\n[reasons]\nmin_length = 0\n",
		"not toml":      "version = = 1",
	}
	for name, raw := range cases {
		if _, err := ParsePolicy([]byte(raw)); err == nil {
			t.Fatalf("%s: ParsePolicy() expected error", name)
		}
	}
}

func TestLoadPolicyEmptyPathUsesDefaults(t *testing.T) {
	policy, err := LoadPolicy("")
	if err != nil {
		t.Fatalf("LoadPolicy() error = %v", err)
	}
	if policy.Reasons.RejectBoilerplate || policy.QuickApprove != "Quick approve" {
		t.Fatalf("policy = %+v", policy)
	}
}
