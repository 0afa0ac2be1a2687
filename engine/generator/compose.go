package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chatdeploy/configurator/engine/mapping"
	"github.com/goccy/go-yaml"
)

const (
	mongoImage    = "mongo:8.0"
	meiliImage    = "getmeili/meilisearch:v1.12.3"
	redisImage    = "redis:7-alpine"
	vectorDBImage = "pgvector/pgvector:0.8.0-pg15-trixie"
	ragAPIImage   = "ghcr.io/danny-avila/librechat-rag-api-dev-lite:latest"
)

// service is one container of the generated stack.
type service struct {
	Name        string
	Image       string
	Description string
	Volumes     []string
}

// bundledMongo reports whether the database URI points at the compose service.
func bundledMongo(n *mapping.NestedConfiguration) bool {
	return strings.Contains(n.Env.MongoURI, "@mongodb:") || strings.Contains(n.Env.MongoURI, "//mongodb:")
}

// services lists the containers in start order.
func services(n *mapping.NestedConfiguration) []service {
	out := []service{{
		Name:        "api",
		Image:       n.Deploy.Image,
		Description: "LibreChat application server",
		Volumes: []string{
			"./librechat.yaml:/app/librechat.yaml",
			"./images:/app/client/public/images",
			"./uploads:/app/uploads",
			"./logs:/app/api/logs",
		},
	}}
	if bundledMongo(n) {
		out = append(out, service{
			Name:        "mongodb",
			Image:       mongoImage,
			Description: "MongoDB database",
			Volumes:     []string{"./data-node:/data/db"},
		})
	}
	if n.Deploy.Meilisearch {
		out = append(out, service{
			Name:        "meilisearch",
			Image:       meiliImage,
			Description: "Conversation search index",
			Volumes:     []string{"./meili_data_v1.12:/meili_data"},
		})
	}
	if n.Deploy.Redis {
		out = append(out, service{
			Name:        "redis",
			Image:       redisImage,
			Description: "Shared cache and session store",
			Volumes:     []string{"./redis-data:/data"},
		})
	}
	if n.Deploy.RAGAPI {
		out = append(out,
			service{
				Name:        "vectordb",
				Image:       vectorDBImage,
				Description: "Vector store for file search",
				Volumes:     []string{"pgdata2:/var/lib/postgresql/data"},
			},
			service{
				Name:        "rag_api",
				Image:       ragAPIImage,
				Description: "Retrieval API for uploaded files",
			},
		)
	}
	return out
}

// hostDirectories lists bind-mounted directories the install scripts create.
func hostDirectories(n *mapping.NestedConfiguration) []string {
	var out []string
	for _, s := range services(n) {
		for _, v := range s.Volumes {
			src, _, _ := strings.Cut(v, ":")
			if dir, ok := strings.CutPrefix(src, "./"); ok && !strings.HasSuffix(dir, ".yaml") {
				out = append(out, dir)
			}
		}
	}
	return out
}

type composeGenerator struct{}

func (composeGenerator) Name() ArtifactName { return ArtifactCompose }
func (composeGenerator) FileName() string   { return "docker-compose.yml" }

func (composeGenerator) Generate(n *mapping.NestedConfiguration, opts Options) (string, error) {
	svcs := services(n)
	names := make([]string, 0, len(svcs))
	for _, s := range svcs {
		names = append(names, s.Name)
	}

	body := yaml.MapSlice{}
	var namedVolumes yaml.MapSlice
	for _, s := range svcs {
		def := yaml.MapSlice{
			{Key: "container_name", Value: containerName(opts, s.Name)},
			{Key: "image", Value: s.Image},
			{Key: "restart", Value: "always"},
		}
		switch s.Name {
		case "api":
			port := strconv.Itoa(n.Deploy.Port)
			def = append(def,
				yaml.MapItem{Key: "ports", Value: []string{port + ":" + port}},
				yaml.MapItem{Key: "depends_on", Value: names[1:]},
				yaml.MapItem{Key: "env_file", Value: []string{".env"}},
				yaml.MapItem{Key: "environment", Value: apiEnvironment(n)},
			)
		case "mongodb":
			def = append(def, yaml.MapItem{Key: "command", Value: "mongod --noauth"})
		case "meilisearch":
			def = append(def, yaml.MapItem{Key: "environment", Value: []string{
				"MEILI_HOST=http://meilisearch:7700",
				"MEILI_NO_ANALYTICS=${MEILI_NO_ANALYTICS}",
				"MEILI_MASTER_KEY=${MEILI_MASTER_KEY}",
			}})
		case "vectordb":
			def = append(def, yaml.MapItem{Key: "environment", Value: []string{
				"POSTGRES_DB=mydatabase",
				"POSTGRES_USER=myuser",
				"POSTGRES_PASSWORD=mypassword",
			}})
		case "rag_api":
			def = append(def,
				yaml.MapItem{Key: "depends_on", Value: []string{"vectordb"}},
				yaml.MapItem{Key: "env_file", Value: []string{".env"}},
				yaml.MapItem{Key: "environment", Value: []string{
					"DB_HOST=vectordb",
					"RAG_PORT=" + strconv.Itoa(n.Deploy.RAGPort),
				}},
			)
		}
		if len(s.Volumes) > 0 {
			def = append(def, yaml.MapItem{Key: "volumes", Value: s.Volumes})
			for _, v := range s.Volumes {
				if src, _, _ := strings.Cut(v, ":"); !strings.HasPrefix(src, ".") {
					namedVolumes = append(namedVolumes, yaml.MapItem{Key: src, Value: yaml.MapSlice{}})
				}
			}
		}
		body = append(body, yaml.MapItem{Key: s.Name, Value: def})
	}

	doc := yaml.MapSlice{{Key: "services", Value: body}}
	if len(namedVolumes) > 0 {
		doc = append(doc, yaml.MapItem{Key: "volumes", Value: namedVolumes})
	}
	out, err := yaml.MarshalWithOptions(doc, yaml.Indent(2), yaml.IndentSequence(true))
	if err != nil {
		return "", fmt.Errorf("failed to encode docker-compose.yml: %w", err)
	}
	return header("#", opts, "Docker Compose stack") + "\n" + string(out), nil
}

func containerName(opts Options, svc string) string {
	return PackageSlug(opts.PackageName) + "-" + strings.ReplaceAll(svc, "_", "-")
}

// apiEnvironment overrides .env values that must point at sibling containers.
func apiEnvironment(n *mapping.NestedConfiguration) []string {
	env := []string{"HOST=0.0.0.0"}
	if n.Deploy.Meilisearch {
		env = append(env, "MEILI_HOST=http://meilisearch:7700")
	}
	if n.Deploy.RAGAPI {
		env = append(env, "RAG_PORT="+strconv.Itoa(n.Deploy.RAGPort), "RAG_API_URL=http://rag_api:"+strconv.Itoa(n.Deploy.RAGPort))
	}
	return env
}
