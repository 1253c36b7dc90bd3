package auth

// loginSuccessHTML is served to the browser tab after a successful
// authorization redirect so the user always sees a terminal message.
const loginSuccessHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Authentication Successful</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            min-height: 100vh;
            margin: 0;
            background: #f4f5f8;
        }
        .container {
            text-align: center;
            background: white;
            padding: 2.5rem;
            border-radius: 12px;
            box-shadow: 0 10px 25px rgba(0,0,0,0.1);
            max-width: 420px;
        }
        h1 { color: #1f2023; font-size: 1.4rem; margin-bottom: 0.5rem; }
        p { color: #6b6f76; margin: 0; }
        .icon { font-size: 3rem; margin-bottom: 1rem; }
    </style>
</head>
<body>
    <div class="container">
        <div class="icon">&#10003;</div>
        <h1>Authentication complete</h1>
        <p>You may close this window and return to the terminal.</p>
    </div>
</body>
</html>`

// loginFailureHTML is served when the redirect carried an error, a missing
// code, or a state mismatch.
const loginFailureHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Authentication Failed</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            min-height: 100vh;
            margin: 0;
            background: #f4f5f8;
        }
        .container {
            text-align: center;
            background: white;
            padding: 2.5rem;
            border-radius: 12px;
            box-shadow: 0 10px 25px rgba(0,0,0,0.1);
            max-width: 420px;
        }
        h1 { color: #1f2023; font-size: 1.4rem; margin-bottom: 0.5rem; }
        p { color: #6b6f76; margin: 0; }
        .icon { font-size: 3rem; margin-bottom: 1rem; color: #eb5757; }
    </style>
</head>
<body>
    <div class="container">
        <div class="icon">&#10007;</div>
        <h1>Authentication failed</h1>
        <p>Please return to the terminal for details.</p>
    </div>
</body>
</html>`
