// shaders.go
package render

import (
	"meshview/vk"
	"meshview/vk/shaderc"
)

const vertexShaderSource = `#version 450

layout(binding = 0) uniform UniformBufferObject {
    mat4 model;
    mat4 view;
    mat4 proj;
} ubo;

layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec3 inColor;
layout(location = 2) in vec2 inTexCoord;
layout(location = 3) in vec3 inNormal;

layout(location = 0) out vec3 fragColor;
layout(location = 1) out vec2 fragTexCoord;
layout(location = 2) out vec3 fragNormal;

void main() {
    gl_Position = ubo.proj * ubo.view * ubo.model * vec4(inPosition, 1.0);
    fragColor = inColor;
    fragTexCoord = inTexCoord;
    fragNormal = mat3(ubo.model) * inNormal;
}
`

const fragmentShaderSource = `#version 450

layout(binding = 1) uniform sampler2D texSampler;

layout(location = 0) in vec3 fragColor;
layout(location = 1) in vec2 fragTexCoord;
layout(location = 2) in vec3 fragNormal;

layout(location = 0) out vec4 outColor;

const vec3 lightDir = normalize(vec3(0.4, -0.6, 1.0));

void main() {
    float diffuse = max(dot(normalize(fragNormal), lightDir), 0.0);
    float lighting = 0.35 + 0.65 * diffuse;
    outColor = vec4(lighting * fragColor, 1.0) * texture(texSampler, fragTexCoord);
}
`

// compileShaderModules compiles the embedded GLSL sources to SPIR-V at
// startup and wraps them in shader modules.
func compileShaderModules(device vk.Device) (vert, frag vk.ShaderModule, err error) {
	compiler := shaderc.NewCompiler()
	defer compiler.Release()

	options := shaderc.NewCompileOptions()
	defer options.Release()
	options.SetTargetEnv(shaderc.TargetEnvVulkan, shaderc.EnvVersionVulkan_1_3)
	options.SetOptimizationLevel(shaderc.OptimizationLevelPerformance)

	compile := func(source, name string, kind shaderc.ShaderKind) (vk.ShaderModule, error) {
		result, err := compiler.CompileIntoSPV(source, name, kind, options)
		if err != nil {
			return vk.ShaderModule{}, markf(err, ErrInitialization, "compiling %s", name)
		}
		defer result.Release()

		module, err := device.CreateShaderModule(&vk.ShaderModuleCreateInfo{Code: result.GetBytes()})
		if err != nil {
			return vk.ShaderModule{}, markf(err, ErrInitialization, "creating %s module", name)
		}
		return module, nil
	}

	vert, err = compile(vertexShaderSource, "mesh.vert", shaderc.VertexShader)
	if err != nil {
		return vk.ShaderModule{}, vk.ShaderModule{}, err
	}

	frag, err = compile(fragmentShaderSource, "mesh.frag", shaderc.FragmentShader)
	if err != nil {
		device.DestroyShaderModule(vert)
		return vk.ShaderModule{}, vk.ShaderModule{}, err
	}

	return vert, frag, nil
}
