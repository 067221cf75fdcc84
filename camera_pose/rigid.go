package camerapose

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/rdk/spatialmath"
)

// MinSamples is the smallest correspondence count that constrains a rigid
// transform in 3D.
const MinSamples = 3

// RigidTransform is a rotation plus translation mapping one frame into
// another: Apply(p) = R*p + T. R is 3x3 orthonormal with det +1.
type RigidTransform struct {
	R *mat.Dense
	T r3.Vector
}

// Apply maps a point through the transform.
func (rt *RigidTransform) Apply(p r3.Vector) r3.Vector {
	return r3.Vector{
		X: rt.R.At(0, 0)*p.X + rt.R.At(0, 1)*p.Y + rt.R.At(0, 2)*p.Z + rt.T.X,
		Y: rt.R.At(1, 0)*p.X + rt.R.At(1, 1)*p.Y + rt.R.At(1, 2)*p.Z + rt.T.Y,
		Z: rt.R.At(2, 0)*p.X + rt.R.At(2, 1)*p.Y + rt.R.At(2, 2)*p.Z + rt.T.Z,
	}
}

// Inverse returns the transform mapping the other way: R^T, -R^T*T.
func (rt *RigidTransform) Inverse() *RigidTransform {
	rInv := mat.DenseCopyOf(rt.R.T())
	inv := &RigidTransform{R: rInv}
	t := inv.Apply(rt.T)
	inv.T = r3.Vector{X: -t.X, Y: -t.Y, Z: -t.Z}
	return inv
}

// Matrix returns the 4x4 homogeneous form.
func (rt *RigidTransform) Matrix() *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, rt.R.At(i, j))
		}
	}
	m.Set(0, 3, rt.T.X)
	m.Set(1, 3, rt.T.Y)
	m.Set(2, 3, rt.T.Z)
	m.Set(3, 3, 1)
	return m
}

// Pose converts the transform to a spatialmath.Pose.
func (rt *RigidTransform) Pose() (spatialmath.Pose, error) {
	rotation, err := spatialmath.NewRotationMatrix(rt.R.RawMatrix().Data)
	if err != nil {
		return nil, err
	}
	return spatialmath.NewPose(rt.T, rotation), nil
}

// EstimateRigidTransform computes the closed-form (Kabsch/Umeyama) rotation
// and translation best aligning src onto dst in the least-squares sense:
// R*src[i] + T ~= dst[i]. The two sets must be index-aligned and hold at
// least MinSamples points; callers guarantee correspondence, the estimator
// guarantees a proper rotation (det +1) even when the unconstrained optimum
// is a reflection.
func EstimateRigidTransform(src, dst []r3.Vector) (*RigidTransform, error) {
	if len(src) != len(dst) {
		return nil, ErrPointCountMismatch
	}
	n := len(src)
	if n < MinSamples {
		return nil, ErrTooFewPoints
	}

	centroidSrc := centroid(src)
	centroidDst := centroid(dst)

	// Cross-covariance of the centered sets: H = sum(centered(src)_i * centered(dst)_i^T).
	h := mat.NewDense(3, 3, nil)
	for i := 0; i < n; i++ {
		a := src[i].Sub(centroidSrc)
		b := dst[i].Sub(centroidDst)
		h.Set(0, 0, h.At(0, 0)+a.X*b.X)
		h.Set(0, 1, h.At(0, 1)+a.X*b.Y)
		h.Set(0, 2, h.At(0, 2)+a.X*b.Z)
		h.Set(1, 0, h.At(1, 0)+a.Y*b.X)
		h.Set(1, 1, h.At(1, 1)+a.Y*b.Y)
		h.Set(1, 2, h.At(1, 2)+a.Y*b.Z)
		h.Set(2, 0, h.At(2, 0)+a.Z*b.X)
		h.Set(2, 1, h.At(2, 1)+a.Z*b.Y)
		h.Set(2, 2, h.At(2, 2)+a.Z*b.Z)
	}

	var svd mat.SVD
	if ok := svd.Factorize(h, mat.SVDFull); !ok {
		return nil, ErrDegenerateGeometry
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	r := mat.NewDense(3, 3, nil)
	r.Mul(&v, u.T())

	// A negative determinant means the best unconstrained alignment is a
	// reflection. Flip the singular direction (third column of V, i.e. the
	// third row of V^T) and recompute to force a proper rotation.
	if mat.Det(r) < 0 {
		for i := 0; i < 3; i++ {
			v.Set(i, 2, -v.At(i, 2))
		}
		r.Mul(&v, u.T())
	}

	rt := &RigidTransform{R: r}
	rt.T = centroidDst.Sub(rt.Apply(centroidSrc))
	return rt, nil
}

func centroid(pts []r3.Vector) r3.Vector {
	var c r3.Vector
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Mul(1.0 / float64(len(pts)))
}
