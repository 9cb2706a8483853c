// Package varfile loads variable definitions for expressions from YAML files.
//
// A variable file is a mapping from names to values:
//
//	BTC: 3.0
//	ETH: 3.5
//	avg: (BTC + ETH) / 2
//
// Numeric values are used as given. String values are expressions, evaluated
// with the variables defined above them in the same file plus any base
// variables given to Decode.
package varfile

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zephyrtronium/shunting"
)

// Load reads the variable file at path into a clone of base. base may be nil.
func Load(path string, base *shunting.Context) (*shunting.Context, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ctx := base.Clone()
	if err := Decode(f, ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ctx, nil
}

// Decode reads a variable file from r and sets its variables in ctx, in file
// order.
func Decode(r io.Reader, ctx *shunting.Context) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to parse variables: %w", err)
	}
	node := &root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		node = node.Content[0]
	}
	if node.Kind == 0 || (node.Kind == yaml.ScalarNode && node.Tag == "!!null") {
		// Empty document.
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: variables must be a mapping", node.Line)
	}
	for i := 0; i < len(node.Content)-1; i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		v, err := value(val, ctx)
		if err != nil {
			return fmt.Errorf("line %d: variable %q: %w", val.Line, key.Value, err)
		}
		ctx.Set(key.Value, v)
	}
	return nil
}

// value decodes one variable's value.
func value(node *yaml.Node, ctx *shunting.Context) (float64, error) {
	if node.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("value must be a number or expression")
	}
	switch node.Tag {
	case "!!int", "!!float":
		var v float64
		if err := node.Decode(&v); err != nil {
			return 0, err
		}
		return v, nil
	case "!!str":
		e, err := shunting.Parse(node.Value)
		if err != nil {
			return 0, err
		}
		return e.Eval(ctx)
	default:
		return 0, fmt.Errorf("value must be a number or expression, not %s", node.Tag)
	}
}

// Write encodes the variables of ctx as a variable file, sorted by name.
func Write(w io.Writer, ctx *shunting.Context) error {
	var doc yaml.Node
	doc.Kind = yaml.MappingNode
	for _, name := range ctx.Names() {
		v, _ := ctx.Get(name)
		var val yaml.Node
		if err := val.Encode(v); err != nil {
			return err
		}
		doc.Content = append(doc.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}, &val)
	}
	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := w.Write(b.Bytes())
	return err
}
