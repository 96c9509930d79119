package engine

// DefaultShaders transform Position by Modelview then Projection and pass
// SourceColor through to the fragment.
var DefaultShaders = ShaderSource{
	Vertex: `attribute vec4 Position;
attribute vec4 SourceColor;

varying vec4 DestinationColor;

uniform mat4 Projection;
uniform mat4 Modelview;

void main(void)
{
    DestinationColor = SourceColor;
    gl_Position = Projection * Modelview * Position;
}
`,
	Fragment: `varying lowp vec4 DestinationColor;

void main(void)
{
    gl_FragColor = DestinationColor;
}
`,
}
