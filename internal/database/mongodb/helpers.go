package mongodb

import (
	"strings"

	"github.com/Lumos-Labs-HQ/colonize/internal/seeder"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// extractDBName picks the database from the URL path, falling back to the
// auth source and finally "test".
func extractDBName(url string, opts *options.ClientOptions) string {
	if rest, ok := cutScheme(url); ok {
		if idx := strings.Index(rest, "/"); idx >= 0 {
			dbPart := rest[idx+1:]
			if idx := strings.Index(dbPart, "?"); idx >= 0 {
				dbPart = dbPart[:idx]
			}
			if dbPart != "" && dbPart != "admin" {
				return dbPart
			}
		}
	}

	if opts != nil && opts.Auth != nil && opts.Auth.AuthSource != "" && opts.Auth.AuthSource != "admin" {
		return opts.Auth.AuthSource
	}

	return "test"
}

func cutScheme(url string) (string, bool) {
	for _, scheme := range []string{"mongodb://", "mongodb+srv://"} {
		if strings.HasPrefix(url, scheme) {
			return strings.TrimPrefix(url, scheme), true
		}
	}
	return "", false
}

func toDocument(doc bson.M) seeder.Document {
	out := make(seeder.Document, len(doc))
	for k, v := range doc {
		out[k] = convertBSONValue(v)
	}
	return out
}

// convertBSONValue converts BSON container values to plain Go maps and slices.
func convertBSONValue(v interface{}) interface{} {
	switch val := v.(type) {
	case bson.M:
		result := make(map[string]interface{}, len(val))
		for k, v := range val {
			result[k] = convertBSONValue(v)
		}
		return result
	case bson.A:
		result := make([]interface{}, len(val))
		for i, v := range val {
			result[i] = convertBSONValue(v)
		}
		return result
	case bson.D:
		result := make(map[string]interface{}, len(val))
		for _, elem := range val {
			result[elem.Key] = convertBSONValue(elem.Value)
		}
		return result
	default:
		return v
	}
}
