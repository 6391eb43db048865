package grid

import (
	"testing"

	"pathgrid/models"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCube(t *testing.T) {
	Convey("Given a cube seeded at a point", t, func() {
		var c Cube
		c.Seed(models.NewGridPos(1, -2, 3))
		So(c, ShouldResemble, Cube{MinX: 1, MaxX: 1, MinY: -2, MaxY: -2, MinZ: 3, MaxZ: 3})
		So(c.Width(), ShouldEqual, 0)

		Convey("Extend widens only the sides a point exceeds", func() {
			c.Extend(models.NewGridPos(4, -5, 3))
			So(c, ShouldResemble, Cube{MinX: 1, MaxX: 4, MinY: -5, MaxY: -2, MinZ: 3, MaxZ: 3})
			So(c.Width(), ShouldEqual, 3)
			So(c.Length(), ShouldEqual, 3)
			So(c.Height(), ShouldEqual, 0)

			c.Extend(models.NewGridPos(2, -3, 3))
			So(c.Width(), ShouldEqual, 3)
		})

		Convey("OnBoundary matches any face", func() {
			c.Extend(models.NewGridPos(5, 5, 5))
			So(c.OnBoundary(models.NewGridPos(1, 0, 4)), ShouldBeTrue)
			So(c.OnBoundary(models.NewGridPos(3, 5, 4)), ShouldBeTrue)
			So(c.OnBoundary(models.NewGridPos(3, 0, 5)), ShouldBeTrue)
			So(c.OnBoundary(models.NewGridPos(3, 0, 4)), ShouldBeFalse)
			So(c.Contains(models.NewGridPos(3, 0, 4)), ShouldBeTrue)
			So(c.Contains(models.NewGridPos(6, 0, 4)), ShouldBeFalse)
		})
	})
}
