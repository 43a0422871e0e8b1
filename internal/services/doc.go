// Package services talks to the outside world: the three library managers and the streaming proxy.
//
// # Transport
//
// [Transport] sends JSON requests with a fixed timeout and classifies failures into
// [shared.TimeoutError], [shared.NetworkError] and [shared.HTTPError].
//
// # Library managers
//
// [LibraryClient] resolves credentials from settings and negotiates the API version per backend,
// remembering the answer in a [VersionCache]. Profiles, folders, lookup, add and the connection
// test are built on [LibraryClient.Call].
//
// # Streaming proxy
//
// [InstanceSelector] walks the mirror list (or the configured override) until one answers, and
// [ProxyService] layers search, stream resolution, artist and album pages on top of it using the
// normalizer package.
//
// # Downloads
//
// [FileDispatcher] writes a resolved stream URL to disk.
package services
