package scm_domain

import "strings"

// ScmBaseDomain is the host of a self-hosted SCM instance. It implements
// pflag.Value so --scm-base-url accepts a full URL and keeps only the bare
// domain the provider clients expect.
type ScmBaseDomain string

func (d *ScmBaseDomain) Set(value string) error {
	value = strings.TrimSpace(value)
	for _, prefix := range []string{"https://", "http://"} {
		value = strings.TrimPrefix(value, prefix)
	}

	*d = ScmBaseDomain(strings.TrimRight(value, "/"))
	return nil
}

func (d *ScmBaseDomain) String() string {
	if d == nil {
		return ""
	}
	return string(*d)
}

func (d *ScmBaseDomain) Type() string {
	return "string"
}
