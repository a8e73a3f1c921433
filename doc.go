/*
Package facefilter is a real-time face filter library: it reads a video stream, finds the facial
landmarks of every face on each frame and draws an overlay on top of the faces, like the face mesh,
the landmark points or an accessory image (sunglasses, masks) following the head movements.

The package provides a command line interface, supporting various flags for the video source,
the landmark detector and the drawing options. To check the supported commands type:

	$ facefilter --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"context"
		"log"

		"github.com/esimov/facefilter"
	)

	func main() {
		detector, err := facefilter.NewPigoDetector("cascade", facefilter.DefaultPigoOptions())
		if err != nil {
			log.Fatal(err)
		}
		renderer := facefilter.NewRenderer(facefilter.NewSurface(), facefilter.TopologyOf(detector), nil)
		renderer.Accessory = facefilter.LoadAsset(context.Background(), "glasses.png")

		sink, err := facefilter.NewFileSink("out/frame.png")
		if err != nil {
			log.Fatal(err)
		}
		session, err := facefilter.NewSession(facefilter.SessionOptions{
			Capturer: &facefilter.ImageSource{Path: "frames"},
			Detector: detector,
			Renderer: renderer,
			Controls: facefilter.NewSettings(facefilter.ModeFunFilter, true),
			Sink:     sink,
		})
		if err != nil {
			log.Fatal(err)
		}
		if err := session.Start(context.Background()); err != nil {
			log.Fatal(err)
		}
		session.Wait()
	}
*/
package facefilter
