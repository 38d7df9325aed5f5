package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/darkpan/internal/fileutil"
)

// SaveMirrors replaces the mirrors list in the config file.
// Comments and formatting in other sections survive because the file is
// edited as a yaml.Node tree.
func SaveMirrors(configPath string, mirrors []string) error {
	if err := ValidateMirrors(mirrors); err != nil {
		return err
	}

	data, err := os.ReadFile(configPath) //nolint:gosec // G304: config path is user-controlled
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	mirrorsNode := &yaml.Node{Kind: yaml.SequenceNode, Content: make([]*yaml.Node, 0, len(mirrors))}
	for _, m := range mirrors {
		mirrorsNode.Content = append(mirrorsNode.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: m})
	}

	switch {
	case doc.Kind == 0:
		doc = yaml.Node{
			Kind: yaml.DocumentNode,
			Content: []*yaml.Node{{
				Kind: yaml.MappingNode,
				Content: []*yaml.Node{
					{Kind: yaml.ScalarNode, Value: "mirrors"},
					mirrorsNode,
				},
			}},
		}
	case doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 && doc.Content[0].Kind == yaml.MappingNode:
		root := doc.Content[0]
		found := false
		for i := 0; i < len(root.Content)-1; i += 2 {
			if root.Content[i].Value == "mirrors" {
				root.Content[i+1] = mirrorsNode
				found = true
				break
			}
		}
		if !found {
			root.Content = append(root.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: "mirrors"},
				mirrorsNode,
			)
		}
	default:
		return fmt.Errorf("parsing config: top level is not a mapping")
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	if _, err := fileutil.WriteAtomic(configPath, &buf, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
