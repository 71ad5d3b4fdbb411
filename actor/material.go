package actor

import "math"

type Material struct {
	Density     float64
	Restitution float64 // 0= no rebound, 1= perfect restitution
	Friction    float64 // Coulomb coefficient
}

// DefaultMaterial is a unit density, non-bouncing, moderately rough material
func DefaultMaterial() Material {
	return Material{
		Density:     1,
		Restitution: 0,
		Friction:    0.5,
	}
}

// CombineRestitution averages the restitution of two touching materials
func CombineRestitution(matA, matB Material) float64 {
	return (matA.Restitution + matB.Restitution) / 2.0
}

// CombineFriction is the geometric mean, so a frictionless side stays frictionless
func CombineFriction(matA, matB Material) float64 {
	return math.Sqrt(matA.Friction * matB.Friction)
}
