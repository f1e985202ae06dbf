// Package otel configures the [O]pen[Tel]emetry tracing environment
// for the instrumented HTTP client.
//
//	func main() {
//
//		ctx := context.Background()
//		err := otel.Configure(ctx, otel.WithService("vk_longpoll", version))
//		if err != nil {
//			os.Exit(1)
//		}
//		defer otel.Shutdown(ctx)
//
//		// your code ...
//	}
//
// Exporter is selected with $OTEL_TRACES_EXPORTER: none (default), stdout.
// $OTEL_SDK_DISABLED=true disables the SDK.
package otel
