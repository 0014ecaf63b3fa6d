package main

import "github.com/piwi3910/cnc-toolpath/internal/model"

// Demo part dimensions. The part is a plate whose top ramps up along X
// with a rectangular pocket sunk into the middle, tessellated as a
// regular height grid. Flat regions, a slope and steep pocket walls
// give the feature extractor and the advisor something non-trivial.
const (
	demoSizeX = 100.0
	demoSizeY = 60.0
	demoStep  = 2.0

	demoBaseZ       = 3.0
	demoRampRise    = 5.0
	demoPocketDepth = 4.0
	demoFloorZ      = 1.0
)

// demoPocket is the pocket footprint on the plate top.
var demoPocket = struct{ minX, maxX, minY, maxY float64 }{30, 70, 20, 40}

// demoPart tessellates the demonstration part as a triangle mesh,
// standing in for an imported model.
func demoPart(name string) *model.Mesh {
	nx := int(demoSizeX/demoStep) + 1
	ny := int(demoSizeY/demoStep) + 1

	vertices := make([]model.Vertex, 0, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			x := float64(i) * demoStep
			y := float64(j) * demoStep
			vertices = append(vertices, model.Vertex{
				Position: model.Vec3{X: x, Y: y, Z: demoHeight(x, y)},
				Normal:   demoNormal(x, y),
			})
		}
	}

	indices := make([]uint32, 0, (nx-1)*(ny-1)*6)
	for j := 0; j < ny-1; j++ {
		for i := 0; i < nx-1; i++ {
			a := uint32(j*nx + i)
			b := a + 1
			c := a + uint32(nx) + 1
			d := a + uint32(nx)
			indices = append(indices, a, b, c, a, c, d)
		}
	}

	mesh := &model.Mesh{}
	mesh.SetName(name)
	mesh.SetMeshData(vertices, indices)
	return mesh
}

// demoHeight returns the part's top surface height at (x, y).
func demoHeight(x, y float64) float64 {
	z := demoBaseZ + demoRampRise*(x/demoSizeX)
	if x >= demoPocket.minX && x <= demoPocket.maxX &&
		y >= demoPocket.minY && y <= demoPocket.maxY {
		z -= demoPocketDepth
		if z < demoFloorZ {
			z = demoFloorZ
		}
	}
	return z
}

// demoNormal estimates the surface normal at (x, y) by central
// differences of the height function.
func demoNormal(x, y float64) model.Vec3 {
	const h = demoStep / 2
	dzdx := (demoHeight(x+h, y) - demoHeight(x-h, y)) / (2 * h)
	dzdy := (demoHeight(x, y+h) - demoHeight(x, y-h)) / (2 * h)
	return model.Vec3{X: -dzdx, Y: -dzdy, Z: 1}.Normalized()
}
