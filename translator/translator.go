package translator

import (
	"context"
	"fmt"
	"sync"

	gst "github.com/richinsley/goshadertranslator"
	log "github.com/sirupsen/logrus"
)

var (
	once       sync.Once
	translator *gst.ShaderTranslator
	initErr    error
)

// GetTranslator returns the process-wide shader translator, creating it on
// first use. Every host shares the same instance.
func GetTranslator() (*gst.ShaderTranslator, error) {
	once.Do(func() {
		translator, initErr = gst.NewShaderTranslator(context.Background())
		if initErr != nil {
			initErr = fmt.Errorf("translator: %w", initErr)
			return
		}
		log.Debug("Shader translator ready")
	})
	return translator, initErr
}

// Shader is a translated fragment shader.
type Shader struct {
	Code string
	// Uniforms maps the WebGL2 uniform names to the names the translator
	// gave them in Code.
	Uniforms map[string]string
}

// TranslateFragment translates a WebGL2 fragment shader into GLSL 4.10.
func TranslateFragment(source string) (*Shader, error) {
	t, err := GetTranslator()
	if err != nil {
		return nil, err
	}

	fsShader, err := t.TranslateShader(source, "fragment", gst.ShaderSpecWebGL2, gst.OutputFormatGLSL410)
	if err != nil {
		return nil, fmt.Errorf("fragment shader translation failed: %w", err)
	}

	s := &Shader{Code: fsShader.Code, Uniforms: make(map[string]string, len(fsShader.Variables))}
	for name, v := range fsShader.Variables {
		s.Uniforms[name] = v.MappedName
	}
	return s, nil
}
