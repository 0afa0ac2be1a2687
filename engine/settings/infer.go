package settings

import (
	"reflect"
	"slices"
	"strings"
)

// InferFileStrategy picks a storage backend from the credentials that are present.
// Firebase wins over S3, S3 over Azure Blob, and local storage is the fallback.
func InferFileStrategy(cfg *Configuration) StorageBackend {
	switch {
	case anySet(cfg.FirebaseAPIKey, cfg.FirebaseProjectID, cfg.FirebaseStorageBucket):
		return BackendFirebase
	case anySet(cfg.AWSBucketName, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey):
		return BackendS3
	case anySet(cfg.AzureStorageConnectionString):
		return BackendAzureBlob
	default:
		return BackendLocal
	}
}

// InferEmailServiceType picks mailgun when its credentials are present, then SMTP,
// and none otherwise.
func InferEmailServiceType(cfg *Configuration) string {
	switch {
	case anySet(cfg.MailgunAPIKey, cfg.MailgunDomain):
		return "mailgun"
	case anySet(cfg.EmailHost, cfg.EmailService):
		return "smtp"
	default:
		return "none"
	}
}

func anySet(values ...string) bool {
	return slices.ContainsFunc(values, func(v string) bool {
		return strings.TrimSpace(v) != ""
	})
}

// Normalize resolves inferred fields and canonical forms in place. It is idempotent.
func (c *Configuration) Normalize() {
	if c.FileStrategy.IsSet() {
		c.FileStrategy = c.FileStrategy.normalized()
	} else {
		c.FileStrategy = SingleFileStrategy(InferFileStrategy(c))
	}
	if strings.TrimSpace(c.EmailServiceType) == "" {
		c.EmailServiceType = InferEmailServiceType(c)
	}
	for i := range c.MCPServers.Servers {
		c.MCPServers.Servers[i].normalize()
	}
	c.EnabledEndpoints = dedupe(c.EnabledEndpoints)
	c.SocialLogins = dedupe(c.SocialLogins)
	c.AgentsCapabilities = dedupe(c.AgentsCapabilities)
	c.AllowedDomains = dedupe(lowerAll(c.AllowedDomains))
	c.ActionsAllowedDomains = dedupe(c.ActionsAllowedDomains)
}

func dedupe(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || slices.Contains(out, s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func lowerAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// clearPlaceholders treats "{{NAME}}" values in secret fields as unset,
// restoring the field default where one exists.
func clearPlaceholders(cfg *Configuration) {
	walkSensitive(reflect.ValueOf(cfg).Elem(), "", func(path string, v reflect.Value) {
		switch v.Kind() {
		case reflect.String:
			if !IsPlaceholderValue(v.String()) {
				return
			}
			if f, ok := LookupField(path); ok {
				v.Set(f.Value(defaultValues()))
			} else {
				v.SetString("")
			}
		case reflect.Map:
			for _, k := range v.MapKeys() {
				if IsPlaceholderValue(v.MapIndex(k).String()) {
					v.SetMapIndex(k, reflect.ValueOf(""))
				}
			}
		}
	})
}
